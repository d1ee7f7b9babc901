package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/school"
)

type (
	DB struct {
		learner   *learnerTable
		class     *classTable
		term      *termTable
		classFee  *classFeeTable
		customFee *customFeeTable
		payment   *paymentTable
	}

	learnerTable struct {
		sync.RWMutex
		table map[string]*school.Learner
	}

	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}

	termTable struct {
		sync.RWMutex
		table map[string]*school.Term
	}

	classFeeTable struct {
		sync.RWMutex
		table map[string]*school.ClassFee // key: class ID + term ID
	}

	customFeeTable struct {
		sync.RWMutex
		table map[string]*school.CustomFee // key: learner ID + term ID
	}

	paymentTable struct {
		sync.RWMutex
		rows []school.Payment
	}
)

func Open() (*DB, error) {
	db := &DB{
		learner:   &learnerTable{table: make(map[string]*school.Learner)},
		class:     &classTable{table: make(map[string]*school.Class)},
		term:      &termTable{table: make(map[string]*school.Term)},
		classFee:  &classFeeTable{table: make(map[string]*school.ClassFee)},
		customFee: &customFeeTable{table: make(map[string]*school.CustomFee)},
		payment:   &paymentTable{},
	}
	return db, nil
}

func newID() string {
	return uuid.New().String()
}

func pairKey(a, b string) string {
	return a + "|" + b
}
