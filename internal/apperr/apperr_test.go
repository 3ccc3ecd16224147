package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestKinds(t *testing.T) {
	v := Validation("cart.add", errBoom)
	n := NotFound("product.get", errBoom)
	p := Persistence("checkout", errBoom)

	assert.True(t, IsValidation(v))
	assert.False(t, IsPersistence(v))
	assert.True(t, IsNotFound(n))
	assert.True(t, IsPersistence(p))

	assert.ErrorIs(t, v, errBoom)
	assert.Equal(t, "cart.add: boom", v.Error())
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("register: %w", Validation("", errBoom))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "register: boom", err.Error())
	assert.Equal(t, Kind(0), KindOf(errBoom))
	assert.Equal(t, "validation", KindValidation.String())
}
