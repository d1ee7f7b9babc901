package fee

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
)

// Statement is a learner's fee situation for one term (receipt data).
type Statement struct {
	Learner  school.Learner   `json:"learner"`
	Class    school.Class     `json:"class"`
	Term     school.Term      `json:"term"`
	Fee      EffectiveFee     `json:"fee"`
	Payments []school.Payment `json:"payments"`
	Balance  Balance          `json:"balance"`
}

type TermReport struct {
	Term    school.Term      `json:"term"`
	Entries []LearnerBalance `json:"entries"`
	Classes []ClassSummary   `json:"classes"`
	Totals  SchoolSummary    `json:"totals"`
}

type Service struct {
	learners school.LearnerStore
	classes  school.ClassCatalog
	terms    school.TermRegistry
	fees     school.FeeStore
	payments school.PaymentStore
	phones   *phone.Normalizer
	validate *validator.Validate
	log      core.Logger
}

func NewService(
	learners school.LearnerStore,
	classes school.ClassCatalog,
	terms school.TermRegistry,
	fees school.FeeStore,
	payments school.PaymentStore,
	phones *phone.Normalizer,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		learners: learners,
		classes:  classes,
		terms:    terms,
		fees:     fees,
		payments: payments,
		phones:   phones,
		validate: validate,
		log:      logger,
	}
}

// term returns term `id`, or the active term when `id` is empty.
func (svc *Service) term(ctx context.Context, id string) (school.Term, error) {
	if id == "" {
		return svc.terms.GetActiveTerm(ctx)
	}
	return svc.terms.GetTerm(ctx, id)
}

// storeLookup adapts the fee store to the resolver lookups, keeping the last backing failure.
type storeLookup struct {
	ctx   context.Context
	store school.FeeStore
	err   error
}

func (l *storeLookup) ClassFee(classID, termID string) (school.ClassFee, bool) {
	f, err := l.store.GetClassFee(l.ctx, classID, termID)
	if err != nil && !core.IsNotFound(err) {
		l.err = err
	}
	return f, err == nil
}

func (l *storeLookup) CustomFee(learnerID, termID string) (school.CustomFee, bool) {
	f, err := l.store.GetCustomFee(l.ctx, learnerID, termID)
	if err != nil && !core.IsNotFound(err) {
		l.err = err
	}
	return f, err == nil
}

func (svc *Service) Statement(ctx context.Context, learnerID, termID string) (Statement, error) {
	lrn, err := svc.learners.GetLearner(ctx, learnerID)
	if err != nil {
		return Statement{}, err
	}
	term, err := svc.term(ctx, termID)
	if err != nil {
		return Statement{}, err
	}
	cls, err := svc.classes.GetClass(ctx, lrn.ClassID)
	if err != nil && !core.IsNotFound(err) {
		return Statement{}, errors.Wrap(err, "getting class")
	}

	lookup := &storeLookup{ctx: ctx, store: svc.fees}
	fee := Resolve(lrn, term.ID, lookup, lookup)
	if lookup.err != nil {
		return Statement{}, errors.Wrap(lookup.err, "resolving fee")
	}

	payments, err := svc.payments.ListPaymentsByLearnerAndTerm(ctx, lrn.ID, term.ID)
	if err != nil {
		return Statement{}, errors.Wrap(err, "listing payments")
	}

	return Statement{
		Learner:  lrn,
		Class:    cls,
		Term:     term,
		Fee:      fee,
		Payments: payments,
		Balance:  ComputeBalance(fee.Amount, payments),
	}, nil
}

// TermReport resolves the balance of every active learner for `termID` (the active term when empty).
// Entries are kept when they match `status`; an empty status keeps everything. Summaries cover the kept entries.
func (svc *Service) TermReport(ctx context.Context, termID string, status Status) (TermReport, error) {
	term, err := svc.term(ctx, termID)
	if err != nil {
		return TermReport{}, err
	}

	var (
		learners   []school.Learner
		classes    []school.Class
		classFees  []school.ClassFee
		customFees []school.CustomFee
		payments   []school.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		learners, err = svc.learners.ListLearners(gctx, school.LearnerFilter{})
		return errors.Wrap(err, "listing learners")
	})
	g.Go(func() (err error) {
		classes, err = svc.classes.ListClassesOrderedByLevel(gctx)
		return errors.Wrap(err, "listing classes")
	})
	g.Go(func() (err error) {
		classFees, err = svc.fees.ListClassFees(gctx, term.ID)
		return errors.Wrap(err, "listing class fees")
	})
	g.Go(func() (err error) {
		customFees, err = svc.fees.ListCustomFees(gctx, term.ID)
		return errors.Wrap(err, "listing custom fees")
	})
	g.Go(func() (err error) {
		payments, err = svc.payments.ListPaymentsByTerm(gctx, term.ID)
		return errors.Wrap(err, "listing payments")
	})
	if err = g.Wait(); err != nil {
		return TermReport{}, err
	}

	entries := Balances(term.ID, learners, classes, classFees, customFees, payments)
	entries = FilterByStatus(entries, status)
	return TermReport{
		Term:    term,
		Entries: entries,
		Classes: AggregateByClass(entries),
		Totals:  AggregateTotals(entries),
	}, nil
}

// Balances resolves the fee & balance of each learner from snapshots of the term's fees and payments.
func Balances(
	termID string,
	learners []school.Learner,
	classes []school.Class,
	classFees []school.ClassFee,
	customFees []school.CustomFee,
	payments []school.Payment,
) []LearnerBalance {
	classByID := make(map[string]school.Class, len(classes))
	for _, cls := range classes {
		classByID[cls.ID] = cls
	}
	paymentsByLearner := make(map[string][]school.Payment)
	for _, p := range payments {
		if p.TermID == termID {
			paymentsByLearner[p.LearnerID] = append(paymentsByLearner[p.LearnerID], p)
		}
	}
	classTable := NewClassFeeTable(classFees)
	customTable := NewCustomFeeTable(customFees)

	entries := make([]LearnerBalance, 0, len(learners))
	for _, lrn := range learners {
		cls, ok := classByID[lrn.ClassID]
		if !ok {
			cls = school.Class{ID: lrn.ClassID}
		}
		fee := Resolve(lrn, termID, classTable, customTable)
		entries = append(entries, LearnerBalance{
			Learner: lrn,
			Class:   cls,
			Fee:     fee,
			Balance: ComputeBalance(fee.Amount, paymentsByLearner[lrn.ID]),
		})
	}
	return entries
}

func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (school.Payment, error) {
	if err := np.Validate(svc.validate); err != nil {
		return school.Payment{}, err
	}
	lrn, err := svc.learners.GetLearner(ctx, np.LearnerID)
	if err != nil {
		return school.Payment{}, err
	}
	term, err := svc.term(ctx, np.TermID)
	if err != nil {
		return school.Payment{}, err
	}

	date := np.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	payment, err := svc.payments.AppendPayment(ctx, school.Payment{
		LearnerID: lrn.ID,
		TermID:    term.ID,
		Date:      date,
		Amount:    np.Amount,
		Reference: np.Reference,
	})
	if err != nil {
		return school.Payment{}, errors.Wrap(err, "appending payment")
	}
	svc.log.Info("payment recorded", lrn, map[string]interface{}{"amount": payment.Amount.String(), "term": term.String()})
	return payment, nil
}

func (svc *Service) SetClassFee(ctx context.Context, nf NewClassFee) (school.ClassFee, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return school.ClassFee{}, err
	}
	cls, err := svc.classes.GetClass(ctx, nf.ClassID)
	if err != nil {
		return school.ClassFee{}, err
	}
	term, err := svc.term(ctx, nf.TermID)
	if err != nil {
		return school.ClassFee{}, err
	}
	return svc.fees.UpsertClassFee(ctx, school.ClassFee{ClassID: cls.ID, TermID: term.ID, Amount: nf.Amount})
}

func (svc *Service) SetCustomFee(ctx context.Context, nf NewCustomFee) (school.CustomFee, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return school.CustomFee{}, err
	}
	lrn, err := svc.learners.GetLearner(ctx, nf.LearnerID)
	if err != nil {
		return school.CustomFee{}, err
	}
	term, err := svc.term(ctx, nf.TermID)
	if err != nil {
		return school.CustomFee{}, err
	}
	return svc.fees.UpsertCustomFee(ctx, school.CustomFee{
		LearnerID: lrn.ID,
		TermID:    term.ID,
		Amount:    nf.Amount,
		FeeType:   nf.FeeType,
		Reason:    nf.Reason,
	})
}

// RemoveCustomFee drops the learner's override; the class fee applies again.
func (svc *Service) RemoveCustomFee(ctx context.Context, learnerID, termID string) error {
	term, err := svc.term(ctx, termID)
	if err != nil {
		return err
	}
	return svc.fees.DeleteCustomFee(ctx, learnerID, term.ID)
}

// Reminders lists the fee reminder recipients of term `q.TermID` (the active term when empty).
func (svc *Service) Reminders(ctx context.Context, q ReminderQuery) ([]Reminder, error) {
	if q.ClassID != "" {
		if _, err := svc.classes.GetClass(ctx, q.ClassID); err != nil {
			return nil, err
		}
	}
	report, err := svc.TermReport(ctx, q.TermID, "")
	if err != nil {
		return nil, err
	}
	reminders, err := Reminders(report.Entries, q, report.Term, svc.phones)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "filter", Error: err.Error()})
	}
	return reminders, nil
}
