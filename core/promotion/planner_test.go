package promotion

import (
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var classes = []school.Class{
	{ID: "g7", Name: "Grade 7", Level: 7},
	{ID: "g8", Name: "Grade 8", Level: 8},
	{ID: "g9", Name: "grade 9 ", Level: 9},
	{ID: "g5", Name: "Grade 5", Level: 5},
}

func learnersIn(classID string, n int) []school.Learner {
	learners := make([]school.Learner, 0, n)
	for i := 0; i < n; i++ {
		learners = append(learners, school.Learner{ID: classID + "-" + string(rune('a'+i)), ClassID: classID, Active: true})
	}
	return learners
}

func TestPlanner_Plan(t *testing.T) {
	planner := Planner{FinalClassName: "Grade 9"}

	t.Run("promote to next level", func(t *testing.T) {
		plans, err := planner.Plan("g7", learnersIn("g7", 3), classes)
		if err != nil {
			t.Fatalf("Plan() unexpected error = %v", err)
		}
		if len(plans) != 3 {
			t.Fatalf("Plan() = %d plans, want 3", len(plans))
		}
		for _, p := range plans {
			if p.Action != ActionPromote || p.TargetClassID != "g8" || !p.Resolved() {
				t.Errorf("plan = %+v, want promotion to g8", p)
			}
		}
	})

	t.Run("final class graduates", func(t *testing.T) {
		plans, err := planner.Plan("g9", learnersIn("g9", 4), classes)
		if err != nil {
			t.Fatalf("Plan() unexpected error = %v", err)
		}
		for _, p := range plans {
			if p.Action != ActionGraduate || p.TargetClassID != "" {
				t.Errorf("plan = %+v, want graduation", p)
			}
		}
	})

	t.Run("no successor class", func(t *testing.T) {
		plans, err := planner.Plan("g5", learnersIn("g5", 2), classes)
		if err != nil {
			t.Fatalf("Plan() unexpected error = %v", err)
		}
		if len(plans) != 2 {
			t.Fatalf("Plan() = %d plans, want 2", len(plans))
		}
		for _, p := range plans {
			var cfgErr *core.ConfigurationError
			if !core.IsConfiguration(p.Err) || p.Resolved() {
				t.Fatalf("plan = %+v, want configuration error", p)
			}
			cfgErr, _ = p.Err.(*core.ConfigurationError)
			if cfgErr.Code != ErrCodeNoSuccessorClass {
				t.Errorf("code = %s, want %s", cfgErr.Code, ErrCodeNoSuccessorClass)
			}
		}
	})

	t.Run("unknown source class", func(t *testing.T) {
		if _, err := planner.Plan("g1", nil, classes); !core.IsNotFound(err) {
			t.Errorf("Plan() error = %v, want not found", err)
		}
	})

	t.Run("inactive & foreign learners ignored", func(t *testing.T) {
		learners := learnersIn("g7", 2)
		learners = append(learners,
			school.Learner{ID: "grad", ClassID: "g7", Graduated: true},
			school.Learner{ID: "arch", ClassID: "g7", Archived: true},
			school.Learner{ID: "other", ClassID: "g8", Active: true},
		)
		plans, _ := planner.Plan("g7", learners, classes)
		if len(plans) != 2 {
			t.Errorf("Plan() = %+v, want 2 plans", plans)
		}
	})

	t.Run("no learners", func(t *testing.T) {
		plans, err := planner.Plan("g7", nil, classes)
		if err != nil || len(plans) != 0 {
			t.Errorf("Plan() = %v, %v", plans, err)
		}
	})
}
