package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const paymentColumns = "id, learner_id, term_id, payment_date, amount, reference_no, created_at"

type paymentRow struct {
	ID        string          `db:"id"`
	LearnerID string          `db:"learner_id"`
	TermID    string          `db:"term_id"`
	Date      time.Time       `db:"payment_date"`
	Amount    decimal.Decimal `db:"amount"`
	Reference null.String     `db:"reference_no"`
	CreatedAt time.Time       `db:"created_at"`
}

func (row paymentRow) unboil() school.Payment {
	return school.Payment{
		ID:        row.ID,
		LearnerID: row.LearnerID,
		TermID:    row.TermID,
		Date:      row.Date.UTC(),
		Amount:    row.Amount,
		Reference: row.Reference.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type paymentStore struct {
	db core.DB
}

var _ school.PaymentStore = (*paymentStore)(nil) // interface compliance check

func NewPaymentStore(db core.DB) *paymentStore {
	return &paymentStore{db: db}
}

func (store paymentStore) list(ctx context.Context, where string, args ...interface{}) ([]school.Payment, error) {
	var rows []paymentRow
	q := "SELECT " + paymentColumns + " FROM payments WHERE " + where + " ORDER BY payment_date, created_at"
	if err := store.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "", "", "listing payments")
	}
	payments := make([]school.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.unboil())
	}
	return payments, nil
}

func (store paymentStore) ListPaymentsByLearnerAndTerm(ctx context.Context, learnerID, termID string) ([]school.Payment, error) {
	if !validIDs(learnerID, termID) {
		return []school.Payment{}, nil
	}
	return store.list(ctx, "learner_id = $1 AND term_id = $2", learnerID, termID)
}

func (store paymentStore) ListPaymentsByTerm(ctx context.Context, termID string) ([]school.Payment, error) {
	if !validIDs(termID) {
		return []school.Payment{}, nil
	}
	return store.list(ctx, "term_id = $1", termID)
}

func (store paymentStore) AppendPayment(ctx context.Context, pmt school.Payment) (school.Payment, error) {
	var row paymentRow
	q := `INSERT INTO payments (id, learner_id, term_id, payment_date, amount, reference_no)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + paymentColumns
	ref := null.NewString(pmt.Reference, pmt.Reference != "")
	err := store.db.GetContext(ctx, &row, q, uuid.New().String(), pmt.LearnerID, pmt.TermID, pmt.Date.UTC(), pmt.Amount, ref)
	if err != nil {
		return school.Payment{}, trapErr(err, "", "", "inserting payment")
	}
	return row.unboil(), nil
}
