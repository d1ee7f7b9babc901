package school

import (
	"context"
)

// Stores are the persistence collaborators of the engine.
// Lookup misses are reported as *core.NotFoundError, backing service failures as core.NewUnavailableError.
type (
	LearnerStore interface {
		GetLearner(ctx context.Context, id string) (Learner, error)
		GetLearnerByAdmissionNo(ctx context.Context, admissionNo string) (Learner, error)
		ListActiveLearnersByClass(ctx context.Context, classID string) ([]Learner, error)
		ListLearners(ctx context.Context, filter LearnerFilter) ([]Learner, error)
		// CountAdmissionNumbers counts learners whose admission number starts with prefix.
		CountAdmissionNumbers(ctx context.Context, prefix string) (int, error)
		CreateLearner(ctx context.Context, learner Learner) (Learner, error)
		UpdateLearnerClass(ctx context.Context, id, classID string) error
		// UpdateGuardianPhones overwrites both numbers; an empty string clears the number.
		UpdateGuardianPhones(ctx context.Context, id, phone1, phone2 string) error
		SetLearnerArchived(ctx context.Context, id string) error
		// SetLearnerGraduated deactivates the learner for good.
		SetLearnerGraduated(ctx context.Context, id string) error
	}

	FeeStore interface {
		GetClassFee(ctx context.Context, classID, termID string) (ClassFee, error)
		GetCustomFee(ctx context.Context, learnerID, termID string) (CustomFee, error)
		ListClassFees(ctx context.Context, termID string) ([]ClassFee, error)
		ListCustomFees(ctx context.Context, termID string) ([]CustomFee, error)
		// UpsertClassFee updates the (class, term) fee if it exists, else inserts it.
		UpsertClassFee(ctx context.Context, fee ClassFee) (ClassFee, error)
		// UpsertCustomFee updates the (learner, term) fee if it exists, else inserts it.
		UpsertCustomFee(ctx context.Context, fee CustomFee) (CustomFee, error)
		DeleteCustomFee(ctx context.Context, learnerID, termID string) error
	}

	PaymentStore interface {
		ListPaymentsByLearnerAndTerm(ctx context.Context, learnerID, termID string) ([]Payment, error)
		ListPaymentsByTerm(ctx context.Context, termID string) ([]Payment, error)
		AppendPayment(ctx context.Context, payment Payment) (Payment, error)
	}

	ClassCatalog interface {
		ListClassesOrderedByLevel(ctx context.Context) ([]Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
	}

	TermRegistry interface {
		// GetActiveTerm fails with a *core.NotFoundError if no term is active.
		GetActiveTerm(ctx context.Context) (Term, error)
		GetTerm(ctx context.Context, id string) (Term, error)
		GetOrCreateTerm(ctx context.Context, year, number int) (Term, error)
		// ActivateTerm makes `id` the only active term in a single step.
		ActivateTerm(ctx context.Context, id string) (Term, error)
	}
)
