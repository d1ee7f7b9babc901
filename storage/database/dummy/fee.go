package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type feeStore struct {
	classFees  *classFeeTable
	customFees *customFeeTable
}

var _ school.FeeStore = (*feeStore)(nil) // interface compliance check

func NewFeeStore(db *DB) school.FeeStore {
	return &feeStore{classFees: db.classFee, customFees: db.customFee}
}

func (store *feeStore) GetClassFee(_ context.Context, classID, termID string) (school.ClassFee, error) {
	store.classFees.RLock()
	defer store.classFees.RUnlock()

	if fee, ok := store.classFees.table[pairKey(classID, termID)]; ok {
		return *fee, nil
	}
	return school.ClassFee{}, core.NewNotFoundError("class fee", pairKey(classID, termID))
}

func (store *feeStore) GetCustomFee(_ context.Context, learnerID, termID string) (school.CustomFee, error) {
	store.customFees.RLock()
	defer store.customFees.RUnlock()

	if fee, ok := store.customFees.table[pairKey(learnerID, termID)]; ok {
		return *fee, nil
	}
	return school.CustomFee{}, core.NewNotFoundError("custom fee", pairKey(learnerID, termID))
}

func (store *feeStore) ListClassFees(_ context.Context, termID string) ([]school.ClassFee, error) {
	store.classFees.RLock()
	defer store.classFees.RUnlock()

	fees := make([]school.ClassFee, 0)
	for _, fee := range store.classFees.table {
		if fee.TermID == termID {
			fees = append(fees, *fee)
		}
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].ClassID < fees[j].ClassID })
	return fees, nil
}

func (store *feeStore) ListCustomFees(_ context.Context, termID string) ([]school.CustomFee, error) {
	store.customFees.RLock()
	defer store.customFees.RUnlock()

	fees := make([]school.CustomFee, 0)
	for _, fee := range store.customFees.table {
		if fee.TermID == termID {
			fees = append(fees, *fee)
		}
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].LearnerID < fees[j].LearnerID })
	return fees, nil
}

func (store *feeStore) UpsertClassFee(_ context.Context, fee school.ClassFee) (school.ClassFee, error) {
	store.classFees.Lock()
	defer store.classFees.Unlock()

	key := pairKey(fee.ClassID, fee.TermID)
	if existing, ok := store.classFees.table[key]; ok {
		existing.Amount = fee.Amount
		return *existing, nil
	}
	fee.ID = newID()
	store.classFees.table[key] = &fee
	return fee, nil
}

func (store *feeStore) UpsertCustomFee(_ context.Context, fee school.CustomFee) (school.CustomFee, error) {
	store.customFees.Lock()
	defer store.customFees.Unlock()

	fee.UpdatedAt = time.Now().UTC()
	key := pairKey(fee.LearnerID, fee.TermID)
	if existing, ok := store.customFees.table[key]; ok {
		fee.ID = existing.ID
	} else {
		fee.ID = newID()
	}
	store.customFees.table[key] = &fee
	return fee, nil
}

func (store *feeStore) DeleteCustomFee(_ context.Context, learnerID, termID string) error {
	store.customFees.Lock()
	defer store.customFees.Unlock()

	key := pairKey(learnerID, termID)
	if _, ok := store.customFees.table[key]; !ok {
		return core.NewNotFoundError("custom fee", key)
	}
	delete(store.customFees.table, key)
	return nil
}
