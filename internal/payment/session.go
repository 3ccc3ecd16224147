// Package payment reconciles a tendered payment against the amount due.
// It has no side effects; persisting the result is the checkout's job.
package payment

import (
	"errors"
	"fmt"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateAwaitingMethodAndAmount State = "awaiting_method_and_amount"
	StateReady                   State = "ready"
	StateConfirmed               State = "confirmed"
	StateCancelled               State = "cancelled"
)

// QuickTenderDenominations are the bill shortcuts offered on the cash path.
var QuickTenderDenominations = []decimal.Decimal{
	decimal.NewFromInt(100),
	decimal.NewFromInt(500),
	decimal.NewFromInt(1000),
}

var (
	ErrMethodRequired    = errors.New("payment method is required")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrReferenceRequired = errors.New("reference number is required for non-cash payments")
	ErrInsufficientCash  = errors.New("tendered amount is less than amount due")
	ErrSessionClosed     = errors.New("payment session is already closed")
)

// InsufficientTenderError carries the (negative) change for display.
type InsufficientTenderError struct {
	Due      decimal.Decimal
	Tendered decimal.Decimal
}

func (e *InsufficientTenderError) Change() decimal.Decimal {
	return e.Tendered.Sub(e.Due)
}

func (e *InsufficientTenderError) Error() string {
	return fmt.Sprintf("tendered %s is short of %s due (change %s)",
		e.Tendered.StringFixed(2), e.Due.StringFixed(2), e.Change().StringFixed(2))
}

func (e *InsufficientTenderError) Is(target error) bool { return target == ErrInsufficientCash }

// Details is the confirmed outcome of a payment session.
type Details struct {
	Method    model.PaymentMethod `json:"method"`
	Tendered  decimal.Decimal     `json:"tendered"`
	Change    decimal.Decimal     `json:"change"`
	Reference string              `json:"reference,omitempty"`
}

// ReferencePtr returns the reference for persistence, nil when absent.
func (d Details) ReferencePtr() *string {
	if d.Reference == "" {
		return nil
	}
	ref := d.Reference
	return &ref
}

// Session is one checkout attempt's payment dialog. Not safe for concurrent use.
type Session struct {
	due       decimal.Decimal
	method    model.PaymentMethod
	tendered  decimal.Decimal
	reference string
	state     State
	details   *Details
}

func NewSession(due decimal.Decimal) (*Session, error) {
	if due.IsNegative() {
		return nil, apperr.Validation("payment.new", ErrNegativeAmount)
	}
	return &Session{
		due:      due,
		tendered: decimal.Zero,
		state:    StateAwaitingMethodAndAmount,
	}, nil
}

func (s *Session) Due() decimal.Decimal       { return s.due }
func (s *Session) Method() model.PaymentMethod { return s.method }
func (s *Session) Tendered() decimal.Decimal  { return s.tendered }
func (s *Session) Reference() string          { return s.reference }
func (s *Session) State() State               { return s.state }

// Details returns the confirmed details, if any.
func (s *Session) Details() (Details, bool) {
	if s.details == nil {
		return Details{}, false
	}
	return *s.details, true
}

// SelectMethod switches the single active method.
func (s *Session) SelectMethod(m model.PaymentMethod) error {
	if err := s.open(); err != nil {
		return err
	}
	if !m.Valid() {
		return apperr.Validation("payment.method", fmt.Errorf("%w: %q", ErrUnknownMethod, m))
	}
	s.method = m
	s.reconcile()
	return nil
}

func (s *Session) SetTendered(amount decimal.Decimal) error {
	if err := s.open(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return apperr.Validation("payment.tender", ErrNegativeAmount)
	}
	s.tendered = amount
	s.reconcile()
	return nil
}

// AddTender adds a quick-tender amount to what is already tendered.
func (s *Session) AddTender(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Validation("payment.tender", ErrNegativeAmount)
	}
	return s.SetTendered(s.tendered.Add(amount))
}

// TenderExact sets the tendered amount to the amount due.
func (s *Session) TenderExact() error {
	return s.SetTendered(s.due)
}

func (s *Session) SetReference(ref string) error {
	if err := s.open(); err != nil {
		return err
	}
	s.reference = strings.TrimSpace(ref)
	s.reconcile()
	return nil
}

// Change is tendered minus due. It is negative while cash is short.
func (s *Session) Change() decimal.Decimal {
	return s.tendered.Sub(s.due)
}

func (s *Session) CanConfirm() bool {
	return s.Validate() == nil
}

// Validate reports why the session cannot be confirmed yet.
func (s *Session) Validate() error {
	if err := s.open(); err != nil {
		return err
	}
	switch s.method {
	case "":
		return apperr.Validation("payment.confirm", ErrMethodRequired)
	case model.PaymentCash:
		if s.tendered.LessThan(s.due) {
			return apperr.Validation("payment.confirm", &InsufficientTenderError{Due: s.due, Tendered: s.tendered})
		}
	default:
		if s.reference == "" {
			return apperr.Validation("payment.confirm", ErrReferenceRequired)
		}
	}
	return nil
}

// Confirm closes the session and returns the payment details.
func (s *Session) Confirm() (Details, error) {
	if err := s.Validate(); err != nil {
		return Details{}, err
	}

	d := Details{Method: s.method}
	if s.method == model.PaymentCash {
		d.Tendered = s.tendered
		d.Change = s.Change()
	} else {
		d.Tendered = decimal.Zero
		d.Change = decimal.Zero
		d.Reference = s.reference
	}

	s.details = &d
	s.state = StateConfirmed
	return d, nil
}

// Cancel abandons the session. Confirmed sessions stay confirmed.
func (s *Session) Cancel() {
	if s.state == StateConfirmed {
		return
	}
	s.state = StateCancelled
}

func (s *Session) open() error {
	if s.state == StateConfirmed || s.state == StateCancelled {
		return apperr.Validation("payment", ErrSessionClosed)
	}
	return nil
}

func (s *Session) reconcile() {
	if s.Validate() == nil {
		s.state = StateReady
	} else {
		s.state = StateAwaitingMethodAndAmount
	}
}
