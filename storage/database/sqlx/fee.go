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

const (
	classFeeColumns  = "id, class_id, term_id, amount"
	customFeeColumns = "id, learner_id, term_id, amount, fee_type, reason, updated_at"
)

type customFeeRow struct {
	ID        string          `db:"id"`
	LearnerID string          `db:"learner_id"`
	TermID    string          `db:"term_id"`
	Amount    decimal.Decimal `db:"amount"`
	FeeType   string          `db:"fee_type"`
	Reason    null.String     `db:"reason"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (row customFeeRow) unboil() school.CustomFee {
	return school.CustomFee{
		ID:        row.ID,
		LearnerID: row.LearnerID,
		TermID:    row.TermID,
		Amount:    row.Amount,
		FeeType:   row.FeeType,
		Reason:    row.Reason.String,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type classFeeRow struct {
	ID      string          `db:"id"`
	ClassID string          `db:"class_id"`
	TermID  string          `db:"term_id"`
	Amount  decimal.Decimal `db:"amount"`
}

func (row classFeeRow) unboil() school.ClassFee {
	return school.ClassFee{ID: row.ID, ClassID: row.ClassID, TermID: row.TermID, Amount: row.Amount}
}

type feeStore struct {
	db core.DB
}

var _ school.FeeStore = (*feeStore)(nil) // interface compliance check

func NewFeeStore(db core.DB) *feeStore {
	return &feeStore{db: db}
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (store feeStore) GetClassFee(ctx context.Context, classID, termID string) (school.ClassFee, error) {
	key := classID + "|" + termID
	if !validIDs(classID, termID) {
		return school.ClassFee{}, core.NewNotFoundError("class fee", key)
	}
	var row classFeeRow
	q := "SELECT " + classFeeColumns + " FROM class_fees WHERE class_id = $1 AND term_id = $2"
	if err := store.db.GetContext(ctx, &row, q, classID, termID); err != nil {
		return school.ClassFee{}, trapErr(err, "class fee", key, "getting class fee")
	}
	return row.unboil(), nil
}

func (store feeStore) GetCustomFee(ctx context.Context, learnerID, termID string) (school.CustomFee, error) {
	key := learnerID + "|" + termID
	if !validIDs(learnerID, termID) {
		return school.CustomFee{}, core.NewNotFoundError("custom fee", key)
	}
	var row customFeeRow
	q := "SELECT " + customFeeColumns + " FROM custom_fees WHERE learner_id = $1 AND term_id = $2"
	if err := store.db.GetContext(ctx, &row, q, learnerID, termID); err != nil {
		return school.CustomFee{}, trapErr(err, "custom fee", key, "getting custom fee")
	}
	return row.unboil(), nil
}

func (store feeStore) ListClassFees(ctx context.Context, termID string) ([]school.ClassFee, error) {
	fees := make([]school.ClassFee, 0)
	if !validIDs(termID) {
		return fees, nil
	}
	var rows []classFeeRow
	q := "SELECT " + classFeeColumns + " FROM class_fees WHERE term_id = $1 ORDER BY class_id"
	if err := store.db.SelectContext(ctx, &rows, q, termID); err != nil {
		return nil, trapErr(err, "", "", "listing class fees")
	}
	for _, row := range rows {
		fees = append(fees, row.unboil())
	}
	return fees, nil
}

func (store feeStore) ListCustomFees(ctx context.Context, termID string) ([]school.CustomFee, error) {
	fees := make([]school.CustomFee, 0)
	if !validIDs(termID) {
		return fees, nil
	}
	var rows []customFeeRow
	q := "SELECT " + customFeeColumns + " FROM custom_fees WHERE term_id = $1 ORDER BY learner_id"
	if err := store.db.SelectContext(ctx, &rows, q, termID); err != nil {
		return nil, trapErr(err, "", "", "listing custom fees")
	}
	for _, row := range rows {
		fees = append(fees, row.unboil())
	}
	return fees, nil
}

func (store feeStore) UpsertClassFee(ctx context.Context, fee school.ClassFee) (school.ClassFee, error) {
	var row classFeeRow
	q := `INSERT INTO class_fees (` + classFeeColumns + `) VALUES ($1, $2, $3, $4)
		ON CONFLICT (class_id, term_id) DO UPDATE SET amount = EXCLUDED.amount
		RETURNING ` + classFeeColumns
	if err := store.db.GetContext(ctx, &row, q, uuid.New().String(), fee.ClassID, fee.TermID, fee.Amount); err != nil {
		return school.ClassFee{}, trapErr(err, "", "", "upserting class fee")
	}
	return row.unboil(), nil
}

func (store feeStore) UpsertCustomFee(ctx context.Context, fee school.CustomFee) (school.CustomFee, error) {
	var row customFeeRow
	q := `INSERT INTO custom_fees (` + customFeeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (learner_id, term_id) DO UPDATE
		SET amount = EXCLUDED.amount, fee_type = EXCLUDED.fee_type, reason = EXCLUDED.reason, updated_at = NOW()
		RETURNING ` + customFeeColumns
	reason := null.NewString(fee.Reason, fee.Reason != "")
	err := store.db.GetContext(ctx, &row, q, uuid.New().String(), fee.LearnerID, fee.TermID, fee.Amount, fee.FeeType, reason)
	if err != nil {
		return school.CustomFee{}, trapErr(err, "", "", "upserting custom fee")
	}
	return row.unboil(), nil
}

func (store feeStore) DeleteCustomFee(ctx context.Context, learnerID, termID string) error {
	key := learnerID + "|" + termID
	if !validIDs(learnerID, termID) {
		return core.NewNotFoundError("custom fee", key)
	}
	res, err := store.db.ExecContext(ctx, "DELETE FROM custom_fees WHERE learner_id = $1 AND term_id = $2", learnerID, termID)
	return checkAffected(res, err, "custom fee", key, "deleting custom fee")
}
