package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/shule/core/school"
)

type paymentStore struct {
	db *paymentTable
}

var _ school.PaymentStore = (*paymentStore)(nil) // interface compliance check

func NewPaymentStore(db *DB) school.PaymentStore {
	return &paymentStore{db: db.payment}
}

func (store *paymentStore) filter(match func(p school.Payment) bool) []school.Payment {
	payments := make([]school.Payment, 0)
	for _, p := range store.db.rows {
		if match(p) {
			payments = append(payments, p)
		}
	}
	return payments
}

func (store *paymentStore) ListPaymentsByLearnerAndTerm(_ context.Context, learnerID, termID string) ([]school.Payment, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return store.filter(func(p school.Payment) bool { return p.LearnerID == learnerID && p.TermID == termID }), nil
}

func (store *paymentStore) ListPaymentsByTerm(_ context.Context, termID string) ([]school.Payment, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return store.filter(func(p school.Payment) bool { return p.TermID == termID }), nil
}

func (store *paymentStore) AppendPayment(_ context.Context, payment school.Payment) (school.Payment, error) {
	store.db.Lock()
	defer store.db.Unlock()

	payment.ID = newID()
	payment.CreatedAt = time.Now().UTC()
	store.db.rows = append(store.db.rows, payment)
	return payment, nil
}
