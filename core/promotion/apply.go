package promotion

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/school"
)

// Apply executes resolved plans through `store`, one learner per unit of work.
// Unresolved plans and per-learner failures are recorded in the report; they do not stop the batch.
func Apply(ctx context.Context, store school.LearnerStore, plans []Plan, workers int) (batch.Report, error) {
	var (
		resolved   = make([]Plan, 0, len(plans))
		unresolved batch.Report
	)
	for _, p := range plans {
		if p.Resolved() {
			resolved = append(resolved, p)
		} else {
			unresolved.Fail(p.LearnerID, p.Err)
		}
	}

	report, err := batch.Run(ctx, workers, resolved, planKey, func(ctx context.Context, p Plan) error {
		return apply(ctx, store, p)
	})
	report.Merge(unresolved)
	return report, err
}

func planKey(p Plan) string {
	return p.LearnerID
}

func apply(ctx context.Context, store school.LearnerStore, p Plan) error {
	switch p.Action {
	case ActionGraduate:
		return store.SetLearnerGraduated(ctx, p.LearnerID)
	case ActionPromote:
		return store.UpdateLearnerClass(ctx, p.LearnerID, p.TargetClassID)
	default:
		return errors.Errorf("unknown promotion action %q", p.Action)
	}
}
