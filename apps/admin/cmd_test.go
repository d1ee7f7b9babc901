package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/storage/spreadsheet"
	testutil "github.com/trezcool/shule/tests"
)

var stores *testutil.Stores

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	stores = testutil.NewStores(t)
	conf := testutil.NewConfig()
	validate, _ := testutil.NewValidator()
	normalizer := phone.NewNormalizer(phone.RulesV1)

	out := new(bytes.Buffer)
	return &commandLine{
		out:          out,
		schoolSvc:    school.NewService(stores.Learners, stores.Classes, stores.Terms, normalizer, validate, conf),
		promotionSvc: promotion.NewService(stores.Learners, stores.Classes, conf, core.NopLogger{}),
		reconcileSvc: reconcile.NewService(stores.Learners, stores.Classes, normalizer, conf, core.NopLogger{}),
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, before func(tt cliTest)) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if before != nil {
				before(tt)
			}
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, want an error")
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "setterm: no args", args: []string{"setterm"}, wantErr: errHelp},
		{name: "setterm: unknown flag", args: []string{"setterm", "-lol", "1"}, wantErr: errHelp},
		{name: "promote: no class", args: []string{"promote"}, wantErr: errHelp},
		{name: "phones: no file", args: []string{"phones", "-commit"}, wantErr: errHelp},
	}
	runCLITests(t, cli, tests, nil)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "fee_discounts", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCLITests(t, cli, tests, nil)
}

func Test_commandLine_setTerm(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	first := testutil.ActivateTerm(t, stores.Terms, 2025, 1)

	tests := []cliTest{
		{name: "year only", args: []string{"setterm", "-year", "2025"}, wantErr: errHelp},
		{name: "new term", args: []string{"setterm", "-year", "2025", "-term", "2"}},
		{name: "existing term", args: []string{"setterm", "-year", "2025", "-term", "1"}},
	}
	runCLITests(t, cli, tests, nil)

	var vErrs validator.ValidationErrors
	if err := cli.run([]string{"admin", "setterm", "-year", "2025", "-term", "4"}); !errors.As(err, &vErrs) {
		t.Errorf("cli.run() error = %v, want validation errors", err)
	}

	active, err := stores.Terms.GetActiveTerm(ctx)
	if err != nil {
		t.Fatalf("GetActiveTerm() failed: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("active term = %d term %d, want 2025 term 1", active.Year, active.Number)
	}
	if !strings.Contains(out.String(), "active term: 2025 term 2") {
		t.Errorf("output = %q", out.String())
	}
}

func Test_commandLine_promote(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	classes := testutil.SeedClasses(t, stores.Classes, 9)
	a := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0001", "Amani", "Otieno", classes[0].ID)
	b := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0002", "Baraka", "Mwangi", classes[0].ID)
	grad := testutil.CreateLearner(t, stores.Learners, "LAA/2017/0001", "Chebet", "Koech", classes[8].ID)

	type extra struct {
		terminal bool
		confirm  bool
	}
	tests := []cliTest{
		{name: "unknown class", args: []string{"promote", "-class", "Grade 12"}, wantErrStr: `class "Grade 12" not found`},
		{name: "not a terminal", args: []string{"promote", "-class", "Grade 1"}, wantErrStr: "not a terminal: pass -yes to promote without confirmation"},
		{name: "declined", args: []string{"promote", "-class", "grade 1"}, extra: extra{terminal: true}, wantErr: errAborted},
		{name: "empty class", args: []string{"promote", "-class", "Grade 5", "-yes"}},
		{name: "confirmed", args: []string{"promote", "-class", "Grade 1"}, extra: extra{terminal: true, confirm: true}},
		{name: "final class", args: []string{"promote", "-class", "Grade 9", "-yes"}},
	}
	runCLITests(t, cli, tests, func(tt cliTest) {
		ex, _ := tt.extra.(extra)
		isTerminalFunc = func() bool { return ex.terminal }
		confirmFunc = func(string) bool { return ex.confirm }
	})

	for _, id := range []string{a.ID, b.ID} {
		lrn, err := stores.Learners.GetLearner(ctx, id)
		if err != nil {
			t.Fatalf("GetLearner() failed: %v", err)
		}
		if lrn.ClassID != classes[1].ID {
			t.Errorf("%s class = %s, want Grade 2", lrn.AdmissionNo, lrn.ClassID)
		}
	}
	lrn, err := stores.Learners.GetLearner(ctx, grad.ID)
	if err != nil {
		t.Fatalf("GetLearner() failed: %v", err)
	}
	if !lrn.Graduated || lrn.Active {
		t.Errorf("final class learner = %+v, want graduated", lrn)
	}
	if !strings.Contains(out.String(), "Grade 5 has no active learners") {
		t.Errorf("output = %q", out.String())
	}
}

func Test_commandLine_phones(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	classes := testutil.SeedClasses(t, stores.Classes, 2)
	a := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0001", "Amani", "Otieno", classes[0].ID)
	b := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0002", "Baraka", "Mwangi", classes[1].ID, "0700000001")

	workbook := filepath.Join(dir, "phones.xlsx")
	f, err := os.Create(workbook)
	if err != nil {
		t.Fatal(err)
	}
	err = spreadsheet.WriteTemplate(f, []reconcile.Row{
		{AdmissionNo: a.AdmissionNo, Phone1: "+254712345678"},
		{AdmissionNo: b.AdmissionNo, Phone1: "0712"},
		{AdmissionNo: "LAA/2030/0001", Phone1: "0712345678"},
	})
	if cErr := f.Close(); err != nil || cErr != nil {
		t.Fatalf("WriteTemplate() failed: %v, %v", err, cErr)
	}
	rejected := filepath.Join(dir, "rejected.xlsx")

	tests := []cliTest{
		{name: "missing file", args: []string{"phones", "-file", filepath.Join(dir, "nope.xlsx")}, wantErr: os.ErrNotExist},
		{name: "preview", args: []string{"phones", "-file", workbook}},
		{name: "commit", args: []string{"phones", "-file", workbook, "-commit", "-rejected", rejected}},
	}
	runCLITests(t, cli, tests, nil)

	got, _ := stores.Learners.GetLearner(ctx, a.ID)
	if got.GuardianPhone != "0712345678" {
		t.Errorf("committed phone = %q, want 0712345678", got.GuardianPhone)
	}
	got, _ = stores.Learners.GetLearner(ctx, b.ID)
	if got.GuardianPhone != "0700000001" {
		t.Errorf("rejected row changed the learner: %q", got.GuardianPhone)
	}
	if !strings.Contains(out.String(), "1 valid, 1 invalid, 1 not found, 0 dropped") {
		t.Errorf("output = %q", out.String())
	}

	rf, err := os.Open(rejected)
	if err != nil {
		t.Fatalf("rejected workbook not written: %v", err)
	}
	defer rf.Close()
	rows, err := spreadsheet.ParsePhoneRows(rf)
	if err != nil {
		t.Fatalf("ParsePhoneRows() failed: %v", err)
	}
	if len(rows) != 2 || rows[0].AdmissionNo != b.AdmissionNo || rows[1].AdmissionNo != "LAA/2030/0001" {
		t.Errorf("rejected rows = %+v", rows)
	}
}

func Test_commandLine_promote_reviewedPlansOnly(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	classes := testutil.SeedClasses(t, stores.Classes, 9)
	reviewed := testutil.CreateLearner(t, stores.Learners, "LAA/2025/0001", "Amani", "Otieno", classes[2].ID)
	var late school.Learner

	isTerminalFunc = func() bool { return true }
	confirmFunc = func(string) bool {
		// joins the class while the prompt is open
		late = testutil.CreateLearner(t, stores.Learners, "LAA/2025/0002", "Baraka", "Mwangi", classes[2].ID)
		return true
	}
	defer func() {
		isTerminalFunc = func() bool { return false }
		confirmFunc = confirm
	}()

	if err := cli.run([]string{"admin", "promote", "-class", "Grade 3"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if lrn, _ := stores.Learners.GetLearner(ctx, reviewed.ID); lrn.ClassID != classes[3].ID {
		t.Errorf("reviewed learner class = %s, want Grade 4", lrn.ClassID)
	}
	if lrn, _ := stores.Learners.GetLearner(ctx, late.ID); lrn.ClassID != classes[2].ID {
		t.Errorf("learner added after the preview was promoted to %s", lrn.ClassID)
	}
}
