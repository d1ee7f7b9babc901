// Package promotion moves learners to the next class at the end of the year.
// Planning is pure and reviewable; Apply performs the moves.
package promotion

import (
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type Action string

const (
	ActionPromote  Action = "promote"
	ActionGraduate Action = "graduate"
)

const ErrCodeNoSuccessorClass = "no_successor_class"

type Plan struct {
	LearnerID     string `json:"learner_id"`
	AdmissionNo   string `json:"admission_no"`
	Name          string `json:"name"`
	Action        Action `json:"action,omitempty"`
	TargetClassID string `json:"target_class_id,omitempty"`
	TargetClass   string `json:"target_class,omitempty"`
	Err           error  `json:"-"`
}

// Resolved reports whether the plan can be applied.
func (p Plan) Resolved() bool {
	return p.Err == nil
}

type Planner struct {
	FinalClassName string // learners in this class graduate
}

func (pl Planner) isFinal(cls school.Class) bool {
	return strings.EqualFold(strings.TrimSpace(cls.Name), strings.TrimSpace(pl.FinalClassName))
}

// Plan computes the next step of every active learner of `sourceClassID`:
// graduation out of the final class, else promotion to the class one level up.
// An unknown source class fails the whole call; a missing successor class is carried by each plan.
func (pl Planner) Plan(sourceClassID string, learners []school.Learner, classes []school.Class) ([]Plan, error) {
	var (
		source, target school.Class
		found, hasNext bool
	)
	for _, cls := range classes {
		if cls.ID == sourceClassID {
			source, found = cls, true
			break
		}
	}
	if !found {
		return nil, core.NewNotFoundError("class", sourceClassID)
	}

	final := pl.isFinal(source)
	if !final {
		for _, cls := range classes {
			if cls.Level == source.Level+1 {
				target, hasNext = cls, true
				break
			}
		}
	}

	var noSuccessor error
	if !final && !hasNext {
		noSuccessor = core.NewConfigurationError(
			ErrCodeNoSuccessorClass,
			"no class follows "+source.Name+": add the next level class or set it as the final class",
		)
	}

	plans := make([]Plan, 0, len(learners))
	for _, lrn := range learners {
		if !lrn.IsActive() || lrn.ClassID != source.ID {
			continue
		}
		plan := Plan{LearnerID: lrn.ID, AdmissionNo: lrn.AdmissionNo, Name: lrn.Name()}
		switch {
		case final:
			plan.Action = ActionGraduate
		case hasNext:
			plan.Action = ActionPromote
			plan.TargetClassID = target.ID
			plan.TargetClass = target.Name
		default:
			plan.Err = noSuccessor
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
