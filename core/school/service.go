package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
)

// SetTerm selects the academic term to activate.
type SetTerm struct {
	Year   int `json:"year" validate:"required,gte=2000,lte=2100"`
	Number int `json:"term" validate:"required,gte=1,lte=3"`
}

func (st SetTerm) Validate(validate *validator.Validate) error {
	return validate.Struct(st)
}

type Service struct {
	learners LearnerStore
	classes  ClassCatalog
	terms    TermRegistry
	phones   *phone.Normalizer
	validate *validator.Validate
	conf     *core.Config
}

var nowFunc = func() time.Time { return time.Now().UTC() }

func NewService(
	learners LearnerStore,
	classes ClassCatalog,
	terms TermRegistry,
	phones *phone.Normalizer,
	validate *validator.Validate,
	conf *core.Config,
) *Service {
	return &Service{
		learners: learners,
		classes:  classes,
		terms:    terms,
		phones:   phones,
		validate: validate,
		conf:     conf,
	}
}

// RegisterLearner validates `nl`, assigns the next admission number of the current year and stores the learner.
func (svc *Service) RegisterLearner(ctx context.Context, nl NewLearner) (Learner, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Learner{}, err
	}
	if _, err := svc.classes.GetClass(ctx, nl.ClassID); err != nil {
		if core.IsNotFound(err) {
			return Learner{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return Learner{}, err
	}

	phones := make([]string, 2)
	for i, raw := range []string{nl.GuardianPhone, nl.GuardianPhone2} {
		if phone.Clean(raw) == "" {
			continue
		}
		normalized, err := svc.phones.Normalize(raw)
		if err != nil {
			return Learner{}, err // unreachable after kephone validation
		}
		phones[i] = normalized
	}

	now := nowFunc()
	prefix := AdmissionPrefix(svc.conf.School.AdmissionPrefix, now.Year())
	count, err := svc.learners.CountAdmissionNumbers(ctx, prefix)
	if err != nil {
		return Learner{}, errors.Wrap(err, "counting admission numbers")
	}

	lrn := Learner{
		AdmissionNo:    NextAdmissionNo(svc.conf.School.AdmissionPrefix, now.Year(), count),
		FirstName:      nl.FirstName,
		LastName:       nl.LastName,
		Gender:         nl.Gender,
		DateOfBirth:    nl.DateOfBirth,
		ClassID:        nl.ClassID,
		GuardianPhone:  phones[0],
		GuardianPhone2: phones[1],
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.learners.CreateLearner(ctx, lrn)
}

func (svc *Service) GetLearner(ctx context.Context, id string) (Learner, error) {
	return svc.learners.GetLearner(ctx, id)
}

// ArchiveLearner soft-deletes an active learner. Graduates stay graduated.
func (svc *Service) ArchiveLearner(ctx context.Context, id string) error {
	lrn, err := svc.learners.GetLearner(ctx, id)
	if err != nil {
		return err
	}
	if lrn.Graduated {
		return core.NewValidationError(errors.New("a graduated learner cannot be archived"))
	}
	if lrn.Archived {
		return nil
	}
	return svc.learners.SetLearnerArchived(ctx, id)
}

func (svc *Service) Learners(ctx context.Context, filter LearnerFilter) ([]Learner, error) {
	return svc.learners.ListLearners(ctx, filter)
}

func (svc *Service) Classes(ctx context.Context) ([]Class, error) {
	return svc.classes.ListClassesOrderedByLevel(ctx)
}

func (svc *Service) ActiveTerm(ctx context.Context) (Term, error) {
	return svc.terms.GetActiveTerm(ctx)
}

// SetActiveTerm activates (year, term), creating it when needed; the previously active term is deactivated.
func (svc *Service) SetActiveTerm(ctx context.Context, st SetTerm) (Term, error) {
	if err := st.Validate(svc.validate); err != nil {
		return Term{}, err
	}
	term, err := svc.terms.GetOrCreateTerm(ctx, st.Year, st.Number)
	if err != nil {
		return Term{}, errors.Wrap(err, "getting term")
	}
	if term.Active {
		return term, nil
	}
	return svc.terms.ActivateTerm(ctx, term.ID)
}

// ResolveTerm returns term `id`, or the active term when `id` is empty.
func (svc *Service) ResolveTerm(ctx context.Context, id string) (Term, error) {
	if id == "" {
		return svc.terms.GetActiveTerm(ctx)
	}
	return svc.terms.GetTerm(ctx, id)
}
