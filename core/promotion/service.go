package promotion

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/school"
)

type Service struct {
	learners school.LearnerStore
	classes  school.ClassCatalog
	planner  Planner
	workers  int
	log      core.Logger
}

func NewService(learners school.LearnerStore, classes school.ClassCatalog, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		learners: learners,
		classes:  classes,
		planner:  Planner{FinalClassName: conf.School.FinalClassName},
		workers:  conf.Batch.Workers,
		log:      logger,
	}
}

// Preview plans the promotion of `classID` without touching any learner.
func (svc *Service) Preview(ctx context.Context, classID string) ([]Plan, error) {
	classes, err := svc.classes.ListClassesOrderedByLevel(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	learners, err := svc.learners.ListActiveLearnersByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "listing learners")
	}
	return svc.planner.Plan(classID, learners, classes)
}

// ErrStalePlan fails a reviewed plan that no longer matches the learner's current promotion.
var ErrStalePlan = errors.New("the promotion of this learner changed since it was previewed")

// Promote plans & applies the promotion of `classID` in one go.
func (svc *Service) Promote(ctx context.Context, classID string) (batch.Report, error) {
	plans, err := svc.Preview(ctx, classID)
	if err != nil {
		return batch.Report{}, err
	}
	return svc.apply(ctx, classID, plans)
}

// Apply applies the `reviewed` plans of a previous Preview of `classID`, and only those.
// Each one is checked against a fresh plan first: a learner who left the class or whose target changed
// fails with ErrStalePlan instead of being moved somewhere nobody reviewed.
func (svc *Service) Apply(ctx context.Context, classID string, reviewed []Plan) (batch.Report, error) {
	current, err := svc.Preview(ctx, classID)
	if err != nil {
		return batch.Report{}, err
	}
	byLearner := make(map[string]Plan, len(current))
	for _, p := range current {
		byLearner[p.LearnerID] = p
	}

	plans := make([]Plan, 0, len(reviewed))
	seen := make(map[string]bool, len(reviewed))
	for _, p := range reviewed {
		if seen[p.LearnerID] {
			continue
		}
		seen[p.LearnerID] = true

		cur, ok := byLearner[p.LearnerID]
		switch {
		case !ok:
			p.Err = ErrStalePlan
			plans = append(plans, p)
		case !cur.Resolved():
			plans = append(plans, cur)
		case cur.Action != p.Action || cur.TargetClassID != p.TargetClassID:
			cur.Err = ErrStalePlan
			plans = append(plans, cur)
		default:
			plans = append(plans, cur)
		}
	}
	return svc.apply(ctx, classID, plans)
}

func (svc *Service) apply(ctx context.Context, classID string, plans []Plan) (batch.Report, error) {
	report, err := Apply(ctx, svc.learners, plans, svc.workers)
	if err != nil {
		svc.log.Error("promotion aborted", err, map[string]interface{}{"class_id": classID})
		return report, err
	}
	if report.FailCount > 0 {
		svc.log.Warn("promotion completed with failures", map[string]interface{}{
			"class_id": classID,
			"success":  report.SuccessCount,
			"failed":   report.FailCount,
		})
	} else {
		svc.log.Info("promotion completed", map[string]interface{}{"class_id": classID, "success": report.SuccessCount})
	}
	return report, nil
}
