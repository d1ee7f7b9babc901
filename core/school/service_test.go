package school_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
	testutil "github.com/trezcool/shule/tests"
)

func newService(t *testing.T) (*school.Service, *testutil.Stores, []school.Class) {
	stores := testutil.NewStores(t)
	validate, _ := testutil.NewValidator()
	svc := school.NewService(
		stores.Learners, stores.Classes, stores.Terms,
		phone.NewNormalizer(phone.RulesV1), validate, testutil.NewConfig(),
	)
	return svc, stores, testutil.SeedClasses(t, stores.Classes, 3)
}

func TestService_RegisterLearner(t *testing.T) {
	svc, _, classes := newService(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	tests := []struct {
		name    string
		nl      school.NewLearner
		wantNo  string
		wantErr bool
	}{
		{
			name:   "first learner",
			nl:     school.NewLearner{FirstName: " Amani ", LastName: "Otieno", Gender: "Female", ClassID: classes[0].ID, GuardianPhone: "+254 712 345 678"},
			wantNo: fmt.Sprintf("LAA/%d/0001", year),
		},
		{
			name:   "second learner",
			nl:     school.NewLearner{FirstName: "Baraka", LastName: "Mwangi", ClassID: classes[1].ID, GuardianPhone2: "0722000111"},
			wantNo: fmt.Sprintf("LAA/%d/0002", year),
		},
		{name: "blank name", nl: school.NewLearner{FirstName: "  ", LastName: "X", ClassID: classes[0].ID}, wantErr: true},
		{name: "bad phone", nl: school.NewLearner{FirstName: "C", LastName: "X", ClassID: classes[0].ID, GuardianPhone: "0712"}, wantErr: true},
		{name: "bad gender", nl: school.NewLearner{FirstName: "C", LastName: "X", ClassID: classes[0].ID, Gender: "x"}, wantErr: true},
		{name: "unknown class", nl: school.NewLearner{FirstName: "C", LastName: "X", ClassID: "nope"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lrn, err := svc.RegisterLearner(ctx, tt.nl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RegisterLearner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if lrn.AdmissionNo != tt.wantNo || !lrn.IsActive() || lrn.ID == "" {
				t.Errorf("RegisterLearner() = %+v, want admission no %s", lrn, tt.wantNo)
			}
		})
	}

	learners, _ := svc.Learners(ctx, school.LearnerFilter{})
	if len(learners) != 2 {
		t.Fatalf("Learners() = %d, want 2", len(learners))
	}
	first := learners[0]
	if first.FirstName != "Amani" || first.Gender != "female" || first.GuardianPhone != "0712345678" {
		t.Errorf("learner not cleaned: %+v", first)
	}
	if learners[1].GuardianPhone != "" || learners[1].GuardianPhone2 != "0722000111" {
		t.Errorf("phones misplaced: %+v", learners[1])
	}
}

func TestService_RegisterLearner_messages(t *testing.T) {
	stores := testutil.NewStores(t)
	validate, translator := testutil.NewValidator()
	svc := school.NewService(stores.Learners, stores.Classes, stores.Terms, phone.NewNormalizer(phone.RulesV1), validate, testutil.NewConfig())

	_, err := svc.RegisterLearner(context.Background(), school.NewLearner{LastName: "X", GuardianPhone: "abc"})
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("RegisterLearner() error = %v, want validation errors", err)
	}
	msgs := core.TranslateErrors(errs, translator)
	want := map[string]string{
		"first_name":     "this field is required",
		"class_id":       "this field is required",
		"guardian_phone": "guardian_phone must be a valid Kenyan phone number",
	}
	for fld, msg := range want {
		if msgs[fld] != msg {
			t.Errorf("message[%s] = %q, want %q", fld, msgs[fld], msg)
		}
	}
}

func TestService_ArchiveLearner(t *testing.T) {
	svc, stores, classes := newService(t)
	ctx := context.Background()
	lrn := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0001", "A", "A", classes[0].ID)
	grad := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0002", "B", "B", classes[2].ID)
	if err := stores.Learners.SetLearnerGraduated(ctx, grad.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.ArchiveLearner(ctx, lrn.ID); err != nil {
		t.Fatalf("ArchiveLearner() unexpected error = %v", err)
	}
	if got, _ := svc.GetLearner(ctx, lrn.ID); got.Status() != school.StatusArchived {
		t.Errorf("Status() = %s, want archived", got.Status())
	}
	if err := svc.ArchiveLearner(ctx, lrn.ID); err != nil {
		t.Errorf("ArchiveLearner() twice error = %v", err)
	}
	if err := svc.ArchiveLearner(ctx, grad.ID); err == nil {
		t.Error("ArchiveLearner(graduate) expected an error")
	}
	if err := svc.ArchiveLearner(ctx, "nope"); !core.IsNotFound(err) {
		t.Errorf("ArchiveLearner(unknown) error = %v, want not found", err)
	}
}

func TestService_SetActiveTerm(t *testing.T) {
	svc, stores, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.ActiveTerm(ctx); !core.IsNotFound(err) {
		t.Fatalf("ActiveTerm() error = %v, want not found", err)
	}

	t1, err := svc.SetActiveTerm(ctx, school.SetTerm{Year: 2025, Number: 1})
	if err != nil || !t1.Active {
		t.Fatalf("SetActiveTerm() = %+v, %v", t1, err)
	}
	t2, err := svc.SetActiveTerm(ctx, school.SetTerm{Year: 2025, Number: 2})
	if err != nil || !t2.Active {
		t.Fatalf("SetActiveTerm() = %+v, %v", t2, err)
	}

	active, _ := svc.ActiveTerm(ctx)
	if active.ID != t2.ID {
		t.Errorf("ActiveTerm() = %s, want %s", active, t2)
	}
	if old, _ := stores.Terms.GetTerm(ctx, t1.ID); old.Active {
		t.Error("previous term still active")
	}

	again, err := svc.SetActiveTerm(ctx, school.SetTerm{Year: 2025, Number: 1})
	if err != nil || again.ID != t1.ID {
		t.Errorf("SetActiveTerm() reactivation = %+v, %v", again, err)
	}

	for _, st := range []school.SetTerm{{Year: 2025, Number: 4}, {Year: 1999, Number: 1}, {}} {
		if _, err = svc.SetActiveTerm(ctx, st); err == nil {
			t.Errorf("SetActiveTerm(%+v) expected an error", st)
		}
	}

	if got, err := svc.ResolveTerm(ctx, ""); err != nil || got.ID != t1.ID {
		t.Errorf("ResolveTerm(\"\") = %+v, %v", got, err)
	}
}

func TestService_Classes(t *testing.T) {
	svc, _, _ := newService(t)
	classes, err := svc.Classes(context.Background())
	if err != nil || len(classes) != 3 {
		t.Fatalf("Classes() = %v, %v", classes, err)
	}
	for i, cls := range classes {
		if cls.Level != i+1 {
			t.Errorf("Classes()[%d].Level = %d", i, cls.Level)
		}
	}
}
