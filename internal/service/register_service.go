package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoCheckout          = errors.New("no checkout in progress")
	ErrPaymentNotConfirmed = errors.New("payment has not been confirmed")
	ErrRegisterClosed      = errors.New("register session is closed")
)

// Receipt is the printable record of a committed sale. Line prices are the
// ones the customer was shown at checkout.
type Receipt struct {
	SaleID    uint            `json:"sale_id"`
	Cashier   string          `json:"cashier"`
	Timestamp time.Time       `json:"timestamp"`
	Lines     []cart.Line     `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Payment   payment.Details `json:"payment"`
}

// PaymentUpdate carries the fields a cashier changed in the payment dialog.
// Nil fields are left alone.
type PaymentUpdate struct {
	Method    *model.PaymentMethod `json:"method"`
	Tendered  *decimal.Decimal     `json:"tendered"`
	AddTender *decimal.Decimal     `json:"add_tender"`
	Exact     bool                 `json:"exact"`
	Reference *string              `json:"reference"`
}

// PaymentView is the state of the payment dialog.
type PaymentView struct {
	State       payment.State       `json:"state"`
	Due         decimal.Decimal     `json:"due"`
	Method      model.PaymentMethod `json:"method,omitempty"`
	Tendered    decimal.Decimal     `json:"tendered"`
	Change      decimal.Decimal     `json:"change"`
	Reference   string              `json:"reference,omitempty"`
	CanConfirm  bool                `json:"can_confirm"`
	QuickTender []decimal.Decimal   `json:"quick_tender"`
}

// RegisterService keeps one register session per login.
type RegisterService struct {
	catalog  *catalog.Snapshot
	checkout CheckoutService
	taxRate  decimal.Decimal
	log      *zap.Logger

	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*RegisterSession
	closed   map[string]time.Time
}

func NewRegisterService(snapshot *catalog.Snapshot, checkout CheckoutService, taxRate decimal.Decimal, log *zap.Logger) *RegisterService {
	return &RegisterService{
		catalog:  snapshot,
		checkout: checkout,
		taxRate:  taxRate,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*RegisterSession),
		closed:   make(map[string]time.Time),
	}
}

// Session returns the register session for id, opening it on first use.
// Login calls it with a fresh id, so it also reopens an id closed earlier.
func (r *RegisterService) Session(id, cashier string) *RegisterSession {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.closed, id)
	return r.openLocked(id, cashier)
}

// Lookup returns the session for an authenticated request. A session that
// was never opened, e.g. after a restart, is opened on demand; one that was
// closed by logout or a newer login stays closed.
func (r *RegisterService) Lookup(id, cashier string) (*RegisterSession, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return sess, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, gone := r.closed[id]; gone {
		return nil, ErrRegisterClosed
	}
	return r.openLocked(id, cashier), nil
}

func (r *RegisterService) openLocked(id, cashier string) *RegisterSession {
	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess := &RegisterSession{
		id:       id,
		cashier:  cashier,
		openedAt: r.now(),
		cart:     cart.New(r.catalog, r.taxRate),
		reg:      r,
	}
	r.sessions[id] = sess
	return sess
}

// Close drops the session and anything left in its cart. The id cannot be
// reopened through Lookup.
func (r *RegisterService) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.closed[id] = r.now()
	r.mu.Unlock()
}

// Prune drops sessions opened longer than maxAge ago, along with closed ids
// of the same age. Tokens carrying those ids have expired by then.
func (r *RegisterService) Prune(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for id, sess := range r.sessions {
		if sess.openedAt.Before(cutoff) {
			delete(r.sessions, id)
			pruned++
		}
	}
	for id, at := range r.closed {
		if at.Before(cutoff) {
			delete(r.closed, id)
		}
	}
	return pruned
}

func (r *RegisterService) OpenSessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RegisterSession owns one cart and at most one payment session.
type RegisterSession struct {
	id       string
	cashier  string
	openedAt time.Time
	reg      *RegisterService

	mu      sync.Mutex
	cart    *cart.Cart
	pending *cart.PendingSale
	payment *payment.Session
}

func (s *RegisterSession) Cashier() string { return s.cashier }

func (s *RegisterSession) Cart() cart.PendingSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals()
}

func (s *RegisterSession) Add(itemID uint) (cart.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.Add(itemID); err != nil {
		return s.totals(), err
	}
	s.cancelPayment()
	return s.totals(), nil
}

func (s *RegisterSession) Adjust(itemID uint, delta int) (cart.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.AdjustQuantity(itemID, delta); err != nil {
		return s.totals(), err
	}
	s.cancelPayment()
	return s.totals(), nil
}

func (s *RegisterSession) Remove(itemID uint) cart.PendingSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(itemID)
	s.cancelPayment()
	return s.totals()
}

func (s *RegisterSession) Clear() cart.PendingSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.cancelPayment()
	return s.totals()
}

// BeginCheckout freezes the current totals and opens a payment session for
// the grand total.
func (s *RegisterSession) BeginCheckout() (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.totals()
	if pending.IsEmpty() {
		return PaymentView{}, apperr.Validation("register.checkout", ErrEmptyCart)
	}
	ps, err := payment.NewSession(pending.GrandTotal)
	if err != nil {
		return PaymentView{}, err
	}
	s.pending = &pending
	s.payment = ps
	return s.view(), nil
}

func (s *RegisterSession) UpdatePayment(u PaymentUpdate) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payment == nil {
		return PaymentView{}, apperr.Validation("register.payment", ErrNoCheckout)
	}
	if u.Method != nil {
		if err := s.payment.SelectMethod(*u.Method); err != nil {
			return s.view(), err
		}
	}
	if u.Tendered != nil {
		if err := s.payment.SetTendered(*u.Tendered); err != nil {
			return s.view(), err
		}
	}
	if u.AddTender != nil {
		if err := s.payment.AddTender(*u.AddTender); err != nil {
			return s.view(), err
		}
	}
	if u.Exact {
		if err := s.payment.TenderExact(); err != nil {
			return s.view(), err
		}
	}
	if u.Reference != nil {
		if err := s.payment.SetReference(*u.Reference); err != nil {
			return s.view(), err
		}
	}
	return s.view(), nil
}

func (s *RegisterSession) ConfirmPayment() (payment.Details, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payment == nil {
		return payment.Details{}, apperr.Validation("register.confirm", ErrNoCheckout)
	}
	return s.payment.Confirm()
}

// CancelCheckout abandons the payment dialog, including a confirmed one.
// The cart is kept.
func (s *RegisterSession) CancelCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment != nil {
		s.payment.Cancel()
	}
	s.payment = nil
	s.pending = nil
}

func (s *RegisterSession) Payment() (PaymentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, false
	}
	return s.view(), true
}

// Commit persists the confirmed checkout. On failure the cart and the
// confirmed payment stay in place so the cashier can retry.
func (s *RegisterSession) Commit(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payment == nil || s.pending == nil {
		return nil, apperr.Validation("register.commit", ErrNoCheckout)
	}
	details, ok := s.payment.Details()
	if !ok {
		return nil, apperr.Validation("register.commit", ErrPaymentNotConfirmed)
	}

	pending := *s.pending
	lines := make([]CommitLine, 0, len(pending.Lines))
	for _, l := range pending.Lines {
		lines = append(lines, CommitLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	sale, err := s.reg.checkout.Commit(ctx, CommitRequest{
		Lines:       lines,
		GrandTotal:  pending.GrandTotal,
		CashierName: s.cashier,
		Payment:     details,
	})
	if err != nil {
		return nil, err
	}

	s.cart.Clear()
	s.payment = nil
	s.pending = nil

	if err := s.reg.catalog.Refresh(ctx); err != nil {
		s.reg.log.Warn("catalog refresh after sale failed", zap.Uint("sale_id", sale.ID), zap.Error(err))
	}

	return &Receipt{
		SaleID:    sale.ID,
		Cashier:   sale.CashierName,
		Timestamp: sale.SaleTimestamp,
		Lines:     pending.Lines,
		ItemCount: pending.ItemCount,
		Subtotal:  pending.Subtotal,
		TaxRate:   pending.TaxRate,
		Tax:       pending.Tax,
		Total:     pending.GrandTotal,
		Payment:   details,
	}, nil
}

func (s *RegisterSession) totals() cart.PendingSale {
	pending := s.cart.Totals()
	if len(pending.Orphaned) > 0 {
		s.reg.log.Warn("cart lines missing from catalog snapshot",
			zap.String("session", s.id),
			zap.Any("item_ids", pending.Orphaned),
		)
	}
	return pending
}

// cancelPayment drops an open payment dialog after the cart changed.
func (s *RegisterSession) cancelPayment() {
	if s.payment == nil {
		return
	}
	s.payment.Cancel()
	s.payment = nil
	s.pending = nil
}

func (s *RegisterSession) view() PaymentView {
	p := s.payment
	return PaymentView{
		State:       p.State(),
		Due:         p.Due(),
		Method:      p.Method(),
		Tendered:    p.Tendered(),
		Change:      p.Change(),
		Reference:   p.Reference(),
		CanConfirm:  p.CanConfirm(),
		QuickTender: payment.QuickTenderDenominations,
	}
}
