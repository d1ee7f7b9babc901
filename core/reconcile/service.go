package reconcile

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
)

type Service struct {
	learners  school.LearnerStore
	classes   school.ClassCatalog
	validator FieldValidator
	workers   int
	log       core.Logger
}

func NewService(
	learners school.LearnerStore,
	classes school.ClassCatalog,
	normalizer *phone.Normalizer,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		learners:  learners,
		classes:   classes,
		validator: PhoneValidator{Normalizer: normalizer},
		workers:   conf.Batch.Workers,
		log:       logger,
	}
}

// Preview reconciles `rows` against every known learner, archived and graduated included.
func (svc *Service) Preview(ctx context.Context, rows []Row) (Result, error) {
	learners, err := svc.learners.ListLearners(ctx, school.LearnerFilter{IncludeInactive: true})
	if err != nil {
		return Result{}, errors.Wrap(err, "listing learners")
	}
	res := Reconcile(rows, NewIdentityTable(learners), svc.validator)
	for _, d := range res.Dropped {
		svc.log.Warn("phone upload row dropped", map[string]interface{}{"line": d.Line, "reason": d.Message})
	}
	return res, nil
}

// Commit writes the valid records of a previewed upload.
func (svc *Service) Commit(ctx context.Context, valid []Record) (batch.Report, error) {
	report, err := Commit(ctx, svc.learners, valid, svc.workers)
	if err != nil {
		svc.log.Error("phone update aborted", err)
		return report, err
	}
	svc.log.Info("guardian phones updated", map[string]interface{}{"success": report.SuccessCount, "failed": report.FailCount})
	return report, nil
}

// Apply reconciles `rows` again and commits the valid partition.
func (svc *Service) Apply(ctx context.Context, rows []Row) (Result, batch.Report, error) {
	res, err := svc.Preview(ctx, rows)
	if err != nil {
		return Result{}, batch.Report{}, err
	}
	report, err := svc.Commit(ctx, res.Valid)
	return res, report, err
}

// TemplateRows lists every learner with its class name & current phones, for the upload template.
func (svc *Service) TemplateRows(ctx context.Context) ([]Row, error) {
	learners, err := svc.learners.ListLearners(ctx, school.LearnerFilter{IncludeInactive: true})
	if err != nil {
		return nil, errors.Wrap(err, "listing learners")
	}
	list, err := svc.classes.ListClassesOrderedByLevel(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	names := make(map[string]string, len(list))
	for _, cls := range list {
		names[cls.ID] = cls.Name
	}

	rows := make([]Row, 0, len(learners))
	for i, lrn := range learners {
		className, ok := names[lrn.ClassID]
		if !ok {
			className = "N/A"
		}
		rows = append(rows, Row{
			Line:        i + 2, // below the header
			AdmissionNo: lrn.AdmissionNo,
			FirstName:   lrn.FirstName,
			LastName:    lrn.LastName,
			ClassName:   className,
			Phone1:      lrn.GuardianPhone,
			Phone2:      lrn.GuardianPhone2,
		})
	}
	return rows, nil
}
