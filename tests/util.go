package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

// Stores bundles the in-memory stores of one fresh database.
type Stores struct {
	DB       *dummydb.DB
	Learners interface {
		school.LearnerStore
		DeleteLearner(id string)
	}
	Classes interface {
		school.ClassCatalog
		CreateClass(name string, level int) school.Class
	}
	Terms    school.TermRegistry
	Fees     school.FeeStore
	Payments school.PaymentStore
}

func NewStores(t *testing.T) *Stores {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return &Stores{
		DB:       db,
		Learners: dummydb.NewLearnerStore(db),
		Classes:  dummydb.NewClassCatalog(db),
		Terms:    dummydb.NewTermRegistry(db),
		Fees:     dummydb.NewFeeStore(db),
		Payments: dummydb.NewPaymentStore(db),
	}
}

// NewConfig returns the default test configuration.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "shule",
		School:   core.SchoolConfig{FinalClassName: "Grade 9", AdmissionPrefix: "LAA"},
		Phone:    core.PhoneConfig{Rules: "v1"},
		Batch:    core.BatchConfig{Workers: 4},
	}
}

// NewValidator returns a validator with every custom tag & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	phone.InitValidators(validate, translator, phone.NewNormalizer(phone.DefaultRules))
	fee.InitValidators(validate, translator)
	return validate, translator
}

// SeedClasses creates the classes Grade 1 to Grade `n`, levels 1 to `n`.
func SeedClasses(t *testing.T, catalog interface {
	CreateClass(name string, level int) school.Class
}, n int) []school.Class {
	classes := make([]school.Class, 0, n)
	for lvl := 1; lvl <= n; lvl++ {
		classes = append(classes, catalog.CreateClass("Grade "+strconv.Itoa(lvl), lvl))
	}
	return classes
}

func CreateLearner(t *testing.T, store school.LearnerStore, admissionNo, first, last, classID string, phones ...string) school.Learner {
	now := time.Now().UTC()
	lrn := school.Learner{
		AdmissionNo: admissionNo,
		FirstName:   first,
		LastName:    last,
		ClassID:     classID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(phones) > 0 {
		lrn.GuardianPhone = phones[0]
	}
	if len(phones) > 1 {
		lrn.GuardianPhone2 = phones[1]
	}
	lrn, err := store.CreateLearner(context.Background(), lrn)
	if err != nil {
		t.Fatalf("createLearner() failed: %v", err)
	}
	return lrn
}

func ActivateTerm(t *testing.T, terms school.TermRegistry, year, number int) school.Term {
	ctx := context.Background()
	term, err := terms.GetOrCreateTerm(ctx, year, number)
	if err != nil {
		t.Fatalf("activateTerm() failed: %v", err)
	}
	if term, err = terms.ActivateTerm(ctx, term.ID); err != nil {
		t.Fatalf("activateTerm() failed: %v", err)
	}
	return term
}

func SetClassFee(t *testing.T, fees school.FeeStore, classID, termID string, amount int64) school.ClassFee {
	cf, err := fees.UpsertClassFee(context.Background(), school.ClassFee{
		ClassID: classID,
		TermID:  termID,
		Amount:  decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("setClassFee() failed: %v", err)
	}
	return cf
}

func Pay(t *testing.T, payments school.PaymentStore, learnerID, termID string, amount int64) school.Payment {
	p, err := payments.AppendPayment(context.Background(), school.Payment{
		LearnerID: learnerID,
		TermID:    termID,
		Date:      time.Now().UTC(),
		Amount:    decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("pay() failed: %v", err)
	}
	return p
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) failed: %v", s, err)
	}
	return d
}
