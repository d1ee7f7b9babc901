package dummydb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type termRegistry struct {
	db *termTable
}

var _ school.TermRegistry = (*termRegistry)(nil) // interface compliance check

func NewTermRegistry(db *DB) school.TermRegistry {
	return &termRegistry{db: db.term}
}

func (reg *termRegistry) GetActiveTerm(context.Context) (school.Term, error) {
	reg.db.RLock()
	defer reg.db.RUnlock()

	for _, term := range reg.db.table {
		if term.Active {
			return *term, nil
		}
	}
	return school.Term{}, core.NewNotFoundError("active term", "")
}

func (reg *termRegistry) GetTerm(_ context.Context, id string) (school.Term, error) {
	reg.db.RLock()
	defer reg.db.RUnlock()

	if term, ok := reg.db.table[id]; ok {
		return *term, nil
	}
	return school.Term{}, core.NewNotFoundError("term", id)
}

func (reg *termRegistry) GetOrCreateTerm(_ context.Context, year, number int) (school.Term, error) {
	reg.db.Lock()
	defer reg.db.Unlock()

	for _, term := range reg.db.table {
		if term.Year == year && term.Number == number {
			return *term, nil
		}
	}
	term := school.Term{ID: newID(), Year: year, Number: number}
	reg.db.table[term.ID] = &term
	return term, nil
}

func (reg *termRegistry) ActivateTerm(_ context.Context, id string) (school.Term, error) {
	reg.db.Lock()
	defer reg.db.Unlock()

	target, ok := reg.db.table[id]
	if !ok {
		return school.Term{}, core.NewNotFoundError("term", id)
	}
	for _, term := range reg.db.table {
		term.Active = false
	}
	target.Active = true
	return *target, nil
}
