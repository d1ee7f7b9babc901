package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type learnerStore struct {
	db *learnerTable
}

var _ school.LearnerStore = (*learnerStore)(nil) // interface compliance check

func NewLearnerStore(db *DB) *learnerStore {
	return &learnerStore{db: db.learner}
}

// query returns learners ordered by admission number.
func (store *learnerStore) query(filter school.LearnerFilter) []school.Learner {
	learners := make([]school.Learner, 0, len(store.db.table))
	for _, lrn := range store.db.table {
		if filter.Match(*lrn) {
			learners = append(learners, *lrn)
		}
	}
	sort.Slice(learners, func(i, j int) bool { return learners[i].AdmissionNo < learners[j].AdmissionNo })
	return learners
}

func (store *learnerStore) GetLearner(_ context.Context, id string) (school.Learner, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if lrn, ok := store.db.table[id]; ok {
		return *lrn, nil
	}
	return school.Learner{}, core.NewNotFoundError("learner", id)
}

func (store *learnerStore) GetLearnerByAdmissionNo(_ context.Context, admissionNo string) (school.Learner, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	for _, lrn := range store.db.table {
		if strings.EqualFold(lrn.AdmissionNo, admissionNo) {
			return *lrn, nil
		}
	}
	return school.Learner{}, core.NewNotFoundError("learner", admissionNo)
}

func (store *learnerStore) ListActiveLearnersByClass(_ context.Context, classID string) ([]school.Learner, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return store.query(school.LearnerFilter{ClassID: classID}), nil
}

func (store *learnerStore) ListLearners(_ context.Context, filter school.LearnerFilter) ([]school.Learner, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return store.query(filter), nil
}

func (store *learnerStore) CountAdmissionNumbers(_ context.Context, prefix string) (int, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	var count int
	for _, lrn := range store.db.table {
		if strings.HasPrefix(lrn.AdmissionNo, prefix) {
			count++
		}
	}
	return count, nil
}

func (store *learnerStore) CreateLearner(_ context.Context, lrn school.Learner) (school.Learner, error) {
	store.db.Lock()
	defer store.db.Unlock()

	for _, other := range store.db.table {
		if lrn.AdmissionNo != "" && strings.EqualFold(other.AdmissionNo, lrn.AdmissionNo) {
			return school.Learner{}, core.NewValidationError(nil, core.FieldError{
				Field: "admission_no",
				Error: "a learner with this admission number already exists",
			})
		}
	}
	lrn.ID = newID()
	store.db.table[lrn.ID] = &lrn
	return lrn, nil
}

// update applies `fn` to learner `id` under the write lock.
func (store *learnerStore) update(id string, fn func(lrn *school.Learner)) error {
	store.db.Lock()
	defer store.db.Unlock()

	lrn, ok := store.db.table[id]
	if !ok {
		return core.NewNotFoundError("learner", id)
	}
	fn(lrn)
	lrn.UpdatedAt = time.Now().UTC()
	return nil
}

func (store *learnerStore) UpdateLearnerClass(_ context.Context, id, classID string) error {
	return store.update(id, func(lrn *school.Learner) { lrn.ClassID = classID })
}

func (store *learnerStore) UpdateGuardianPhones(_ context.Context, id, phone1, phone2 string) error {
	return store.update(id, func(lrn *school.Learner) {
		lrn.GuardianPhone = phone1
		lrn.GuardianPhone2 = phone2
	})
}

func (store *learnerStore) SetLearnerArchived(_ context.Context, id string) error {
	return store.update(id, func(lrn *school.Learner) {
		lrn.Archived = true
		lrn.Active = false
	})
}

func (store *learnerStore) SetLearnerGraduated(_ context.Context, id string) error {
	return store.update(id, func(lrn *school.Learner) {
		lrn.Graduated = true
		lrn.Active = false
	})
}

// DeleteLearner hard-deletes a learner. Only fixtures need it.
func (store *learnerStore) DeleteLearner(id string) {
	store.db.Lock()
	defer store.db.Unlock()
	delete(store.db.table, id)
}
