package school

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
)

// Learner statuses
const (
	StatusActive    = "active"
	StatusGraduated = "graduated"
	StatusArchived  = "archived"
)

// Custom fee types
const (
	FeeTypeFullSponsorship    = "full_sponsorship"
	FeeTypePartialSponsorship = "partial_sponsorship"
	FeeTypeCustomAmount       = "custom_amount"
)

var (
	CustomFeeTypes = []string{FeeTypeFullSponsorship, FeeTypePartialSponsorship, FeeTypeCustomAmount}

	feeTypeLabels = map[string]string{
		FeeTypeFullSponsorship:    "Full Sponsorship",
		FeeTypePartialSponsorship: "Partial Sponsorship",
		FeeTypeCustomAmount:       "Custom Fee",
	}
)

// FeeTypeLabel returns the display name of a custom fee type.
func FeeTypeLabel(feeType string) string {
	if label, ok := feeTypeLabels[feeType]; ok {
		return label
	}
	return feeTypeLabels[FeeTypeCustomAmount]
}

type Learner struct {
	ID             string    `json:"id"`
	AdmissionNo    string    `json:"admission_no"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Gender         string    `json:"gender"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	ClassID        string    `json:"class_id"`
	GuardianPhone  string    `json:"guardian_phone"`
	GuardianPhone2 string    `json:"guardian_phone_2"`
	Active         bool      `json:"active"`
	Graduated      bool      `json:"graduated"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

func (l Learner) Name() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

func (l Learner) Status() string {
	switch {
	case l.Graduated:
		return StatusGraduated
	case l.Archived || !l.Active:
		return StatusArchived
	default:
		return StatusActive
	}
}

func (l Learner) IsActive() bool {
	return l.Status() == StatusActive
}

// GuardianPhones returns the non-empty guardian numbers, primary first.
func (l Learner) GuardianPhones() []string {
	phones := make([]string, 0, 2)
	for _, p := range []string{l.GuardianPhone, l.GuardianPhone2} {
		if p != "" {
			phones = append(phones, p)
		}
	}
	return phones
}

type Class struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type Term struct {
	ID     string `json:"id"`
	Year   int    `json:"year"`
	Number int    `json:"term"`
	Active bool   `json:"active"`
}

func (t Term) String() string {
	return fmt.Sprintf("Year %d - Term %d", t.Year, t.Number)
}

// Label is the short form used in messages to guardians, eg. "Term 1 2025".
func (t Term) Label() string {
	return fmt.Sprintf("Term %d %d", t.Number, t.Year)
}

type ClassFee struct {
	ID      string          `json:"id"`
	ClassID string          `json:"class_id"`
	TermID  string          `json:"term_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type CustomFee struct {
	ID        string          `json:"id"`
	LearnerID string          `json:"learner_id"`
	TermID    string          `json:"term_id"`
	Amount    decimal.Decimal `json:"custom_amount"`
	FeeType   string          `json:"fee_type"`
	Reason    string          `json:"reason,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Payment struct {
	ID        string          `json:"id"`
	LearnerID string          `json:"learner_id"`
	TermID    string          `json:"term_id"`
	Date      time.Time       `json:"payment_date"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference_no,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewLearner contains information needed to register a new Learner.
type NewLearner struct {
	FirstName      string    `json:"first_name" validate:"required,notblank"`
	LastName       string    `json:"last_name" validate:"required,notblank"`
	Gender         string    `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	ClassID        string    `json:"class_id" validate:"required"`
	GuardianPhone  string    `json:"guardian_phone" validate:"kephone"`
	GuardianPhone2 string    `json:"guardian_phone_2" validate:"kephone"`
}

func (nl *NewLearner) Validate(validate *validator.Validate) error {
	nl.FirstName = core.CleanString(nl.FirstName)
	nl.LastName = core.CleanString(nl.LastName)
	nl.Gender = core.CleanString(nl.Gender, true /* lower */)
	nl.ClassID = core.CleanString(nl.ClassID)
	return validate.Struct(nl)
}

// LearnerFilter narrows LearnerStore.ListLearners. The zero value lists active learners of all classes.
type LearnerFilter struct {
	ClassID         string
	IncludeInactive bool // also list graduated & archived learners
}

func (f LearnerFilter) Match(l Learner) bool {
	if f.ClassID != "" && l.ClassID != f.ClassID {
		return false
	}
	return f.IncludeInactive || l.IsActive()
}
