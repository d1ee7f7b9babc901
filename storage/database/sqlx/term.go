package sqlxrepos

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const termColumns = "id, year, term, active"

type termRow struct {
	ID     string `db:"id"`
	Year   int    `db:"year"`
	Number int    `db:"term"`
	Active bool   `db:"active"`
}

func (row termRow) unboil() school.Term {
	return school.Term{ID: row.ID, Year: row.Year, Number: row.Number, Active: row.Active}
}

type termRegistry struct {
	db core.DB
}

var _ school.TermRegistry = (*termRegistry)(nil) // interface compliance check

func NewTermRegistry(db core.DB) *termRegistry {
	return &termRegistry{db: db}
}

func (reg termRegistry) get(ctx context.Context, exec core.DBExecutor, entity, key, where string, args ...interface{}) (school.Term, error) {
	var row termRow
	if err := exec.GetContext(ctx, &row, "SELECT "+termColumns+" FROM terms WHERE "+where, args...); err != nil {
		return school.Term{}, trapErr(err, entity, key, "getting term")
	}
	return row.unboil(), nil
}

func (reg termRegistry) GetActiveTerm(ctx context.Context) (school.Term, error) {
	return reg.get(ctx, reg.db, "active term", "", "active")
}

func (reg termRegistry) GetTerm(ctx context.Context, id string) (school.Term, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Term{}, core.NewNotFoundError("term", id)
	}
	return reg.get(ctx, reg.db, "term", id, "id = $1", id)
}

func (reg termRegistry) GetOrCreateTerm(ctx context.Context, year, number int) (school.Term, error) {
	q := "INSERT INTO terms (id, year, term) VALUES ($1, $2, $3) ON CONFLICT (year, term) DO NOTHING"
	if _, err := reg.db.ExecContext(ctx, q, uuid.New().String(), year, number); err != nil {
		return school.Term{}, trapErr(err, "", "", "inserting term")
	}
	return reg.get(ctx, reg.db, "term", "", "year = $1 AND term = $2", year, number)
}

func (reg termRegistry) ActivateTerm(ctx context.Context, id string) (school.Term, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Term{}, core.NewNotFoundError("term", id)
	}

	var term school.Term
	err := inTx(ctx, reg.db, func(tx core.DBTransactor) error {
		if _, err := tx.ExecContext(ctx, "UPDATE terms SET active = FALSE WHERE active AND id <> $1", id); err != nil {
			return trapErr(err, "", "", "deactivating terms")
		}
		var row termRow
		q := "UPDATE terms SET active = TRUE WHERE id = $1 RETURNING " + termColumns
		if err := tx.GetContext(ctx, &row, q, id); err != nil {
			return trapErr(err, "term", id, "activating term")
		}
		term = row.unboil()
		return nil
	})
	return term, err
}
