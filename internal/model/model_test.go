package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExpiry(t *testing.T) {
	assert.Equal(t, ExpiryExpired, ClassifyExpiry(-1))
	assert.Equal(t, ExpiryDiscount, ClassifyExpiry(0))
	assert.Equal(t, ExpiryDiscount, ClassifyExpiry(7))
	assert.Equal(t, ExpiryStockCheck, ClassifyExpiry(8))
}

func TestCatalogItem_IsLowStock(t *testing.T) {
	assert.True(t, (&CatalogItem{Stock: 3, Threshold: 5}).IsLowStock())
	assert.True(t, (&CatalogItem{Stock: 5, Threshold: 5}).IsLowStock())
	assert.False(t, (&CatalogItem{Stock: 0, Threshold: 5}).IsLowStock())
	assert.False(t, (&CatalogItem{Stock: 6, Threshold: 5}).IsLowStock())
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentMobileWallet.Valid())
	assert.True(t, PaymentCard.Valid())
	assert.False(t, PaymentMethod("Cheque").Valid())
}

func TestUser_PasswordAndPrivileges(t *testing.T) {
	u := &User{Name: "ana", Role: RoleCashier}
	require.NoError(t, u.SetPassword("secret1"))

	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.Contains(t, u.Privileges(), PrivRegister)
	assert.NotContains(t, u.Privileges(), PrivInventoryEdit)
	assert.Equal(t, "ana (Cashier)", u.DisplayName())

	resp := u.ToResponse()
	assert.Equal(t, "ana", resp.Name)
	assert.Equal(t, RoleCashier, resp.Role)
}
