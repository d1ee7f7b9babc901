package fee_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
	testutil "github.com/trezcool/shule/tests"
)

type fixture struct {
	stores  *testutil.Stores
	svc     *fee.Service
	classes []school.Class
	term    school.Term
}

func setup(t *testing.T) *fixture {
	stores := testutil.NewStores(t)
	validate, _ := testutil.NewValidator()
	svc := fee.NewService(
		stores.Learners, stores.Classes, stores.Terms, stores.Fees, stores.Payments,
		phone.NewNormalizer(phone.RulesV1), validate, core.NopLogger{},
	)
	return &fixture{
		stores:  stores,
		svc:     svc,
		classes: testutil.SeedClasses(t, stores.Classes, 3),
		term:    testutil.ActivateTerm(t, stores.Terms, 2025, 1),
	}
}

func TestService_Statement(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	lrn := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0001", "Amani", "Otieno", fx.classes[0].ID)
	testutil.SetClassFee(t, fx.stores.Fees, fx.classes[0].ID, fx.term.ID, 12000)
	testutil.Pay(t, fx.stores.Payments, lrn.ID, fx.term.ID, 5000)
	testutil.Pay(t, fx.stores.Payments, lrn.ID, fx.term.ID, 2000)

	st, err := fx.svc.Statement(ctx, lrn.ID, "")
	if err != nil {
		t.Fatalf("Statement() unexpected error = %v", err)
	}
	if st.Term.ID != fx.term.ID || st.Class.ID != fx.classes[0].ID || len(st.Payments) != 2 {
		t.Errorf("Statement() = %+v", st)
	}
	if st.Fee.Source != fee.SourceClass || !st.Balance.Balance.Equal(decimal.NewFromInt(5000)) || st.Balance.Status != fee.StatusPartial {
		t.Errorf("Statement() balance = %+v, fee = %+v", st.Balance, st.Fee)
	}

	// a custom fee supersedes the class fee
	_, err = fx.svc.SetCustomFee(ctx, fee.NewCustomFee{LearnerID: lrn.ID, FeeType: school.FeeTypeCustomAmount, Amount: decimal.NewFromInt(7000)})
	if err != nil {
		t.Fatalf("SetCustomFee() unexpected error = %v", err)
	}
	st, _ = fx.svc.Statement(ctx, lrn.ID, fx.term.ID)
	if st.Fee.Source != fee.SourceCustom || st.Balance.Status != fee.StatusPaid {
		t.Errorf("Statement() after custom fee = %+v", st.Balance)
	}

	// removing it falls back to the class fee
	if err = fx.svc.RemoveCustomFee(ctx, lrn.ID, ""); err != nil {
		t.Fatalf("RemoveCustomFee() unexpected error = %v", err)
	}
	st, _ = fx.svc.Statement(ctx, lrn.ID, "")
	if st.Fee.Source != fee.SourceClass {
		t.Errorf("Statement() after removal = %+v", st.Fee)
	}

	if _, err = fx.svc.Statement(ctx, "nope", ""); !core.IsNotFound(err) {
		t.Errorf("Statement(unknown learner) error = %v, want not found", err)
	}
}

func TestService_noActiveTerm(t *testing.T) {
	stores := testutil.NewStores(t)
	validate, _ := testutil.NewValidator()
	svc := fee.NewService(
		stores.Learners, stores.Classes, stores.Terms, stores.Fees, stores.Payments,
		phone.NewNormalizer(phone.RulesV1), validate, core.NopLogger{},
	)
	if _, err := svc.TermReport(context.Background(), "", ""); !core.IsNotFound(err) {
		t.Errorf("TermReport() error = %v, want not found", err)
	}
}

func TestService_TermReport(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	g1, g2, g3 := fx.classes[0], fx.classes[1], fx.classes[2]
	testutil.SetClassFee(t, fx.stores.Fees, g1.ID, fx.term.ID, 1000)
	testutil.SetClassFee(t, fx.stores.Fees, g2.ID, fx.term.ID, 2000)

	a := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0001", "A", "A", g2.ID)
	b := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0002", "B", "B", g1.ID)
	_ = testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0003", "C", "C", g1.ID)
	d := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0004", "D", "D", g3.ID)
	archived := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0005", "E", "E", g1.ID)
	if err := fx.stores.Learners.SetLearnerArchived(ctx, archived.ID); err != nil {
		t.Fatal(err)
	}

	testutil.Pay(t, fx.stores.Payments, a.ID, fx.term.ID, 2000)
	testutil.Pay(t, fx.stores.Payments, b.ID, fx.term.ID, 500)
	testutil.Pay(t, fx.stores.Payments, d.ID, fx.term.ID, 100)

	report, err := fx.svc.TermReport(ctx, "", "")
	if err != nil {
		t.Fatalf("TermReport() unexpected error = %v", err)
	}
	if len(report.Entries) != 4 {
		t.Fatalf("TermReport() entries = %d, want 4 (archived excluded)", len(report.Entries))
	}
	if len(report.Classes) != 3 || report.Classes[0].Class.ID != g1.ID || report.Classes[2].Class.ID != g3.ID {
		t.Errorf("TermReport() classes out of level order: %+v", report.Classes)
	}
	if !report.Totals.Expected.Equal(decimal.NewFromInt(4000)) || !report.Totals.Paid.Equal(decimal.NewFromInt(2600)) {
		t.Errorf("TermReport() totals = %+v", report.Totals)
	}
	// Grade 3 has no fee configured: D overpaid an unconfigured fee
	if g3sum := report.Classes[2]; g3sum.Percentage != 0 || g3sum.PaidCount != 0 || g3sum.PartialCount != 1 {
		t.Errorf("Grade 3 summary = %+v", g3sum)
	}

	// only a zero balance is paid: the overpaid learner stays out of the paid filter
	report, err = fx.svc.TermReport(ctx, fx.term.ID, fee.StatusPaid)
	if err != nil {
		t.Fatalf("TermReport(paid) unexpected error = %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Learner.ID != a.ID || report.Totals.PaidCount != 1 {
		t.Errorf("TermReport(paid) = %+v", report.Entries)
	}

	report, err = fx.svc.TermReport(ctx, fx.term.ID, fee.StatusUnpaid)
	if err != nil {
		t.Fatalf("TermReport(unpaid) unexpected error = %v", err)
	}
	if len(report.Entries) != 1 || report.Totals.UnpaidCount != 1 {
		t.Errorf("TermReport(unpaid) = %+v", report.Entries)
	}
}

func TestService_RecordPayment(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	lrn := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0001", "A", "A", fx.classes[0].ID)

	tests := []struct {
		name     string
		np       fee.NewPayment
		wantErr  bool
		notFound bool
	}{
		{name: "valid", np: fee.NewPayment{LearnerID: lrn.ID, Amount: decimal.NewFromInt(1500), Reference: " MPESA123 "}},
		{name: "zero amount", np: fee.NewPayment{LearnerID: lrn.ID, Amount: decimal.Zero}, wantErr: true},
		{name: "negative amount", np: fee.NewPayment{LearnerID: lrn.ID, Amount: decimal.NewFromInt(-5)}, wantErr: true},
		{name: "no learner", np: fee.NewPayment{Amount: decimal.NewFromInt(5)}, wantErr: true},
		{name: "unknown learner", np: fee.NewPayment{LearnerID: "x", Amount: decimal.NewFromInt(5)}, wantErr: true, notFound: true},
		{name: "unknown term", np: fee.NewPayment{LearnerID: lrn.ID, TermID: "x", Amount: decimal.NewFromInt(5)}, wantErr: true, notFound: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := fx.svc.RecordPayment(ctx, tt.np)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordPayment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.notFound && !core.IsNotFound(err) {
				t.Errorf("RecordPayment() error = %v, want not found", err)
			}
			if err != nil {
				return
			}
			if p.ID == "" || p.TermID != fx.term.ID || p.Reference != "MPESA123" || p.Date.IsZero() {
				t.Errorf("RecordPayment() = %+v", p)
			}
		})
	}

	var vErrs validator.ValidationErrors
	_, err := fx.svc.RecordPayment(ctx, fee.NewPayment{LearnerID: lrn.ID})
	if vErrs, _ = err.(validator.ValidationErrors); len(vErrs) != 1 || vErrs[0].Field() != "amount" {
		t.Errorf("RecordPayment() error = %v, want amount error", err)
	}
}

func TestService_SetCustomFee(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	lrn := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0001", "A", "A", fx.classes[0].ID)

	tests := []struct {
		name       string
		nf         fee.NewCustomFee
		wantAmount int64
		wantErr    bool
	}{
		{
			name:       "full sponsorship is free",
			nf:         fee.NewCustomFee{LearnerID: lrn.ID, FeeType: "Full_Sponsorship", Amount: decimal.NewFromInt(9000)},
			wantAmount: 0,
		},
		{
			name:       "partial sponsorship",
			nf:         fee.NewCustomFee{LearnerID: lrn.ID, FeeType: school.FeeTypePartialSponsorship, Amount: decimal.NewFromInt(4000), Reason: "sibling"},
			wantAmount: 4000,
		},
		{name: "negative amount", nf: fee.NewCustomFee{LearnerID: lrn.ID, FeeType: school.FeeTypeCustomAmount, Amount: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "unknown type", nf: fee.NewCustomFee{LearnerID: lrn.ID, FeeType: "discount", Amount: decimal.NewFromInt(1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := fx.svc.SetCustomFee(ctx, tt.nf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetCustomFee() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !cf.Amount.Equal(decimal.NewFromInt(tt.wantAmount)) {
				t.Errorf("SetCustomFee() amount = %s, want %d", cf.Amount, tt.wantAmount)
			}
		})
	}

	// upserted, not duplicated
	fees, _ := fx.stores.Fees.ListCustomFees(ctx, fx.term.ID)
	if len(fees) != 1 || fees[0].FeeType != school.FeeTypePartialSponsorship {
		t.Errorf("custom fees = %+v", fees)
	}
}

func TestService_SetClassFee(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	if _, err := fx.svc.SetClassFee(ctx, fee.NewClassFee{ClassID: fx.classes[1].ID, Amount: decimal.NewFromInt(3000)}); err != nil {
		t.Fatalf("SetClassFee() unexpected error = %v", err)
	}
	cf, err := fx.svc.SetClassFee(ctx, fee.NewClassFee{ClassID: fx.classes[1].ID, Amount: decimal.NewFromInt(3500)})
	if err != nil || !cf.Amount.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("SetClassFee() = %+v, %v", cf, err)
	}
	fees, _ := fx.stores.Fees.ListClassFees(ctx, fx.term.ID)
	if len(fees) != 1 {
		t.Errorf("class fees = %+v, want a single upserted row", fees)
	}

	if _, err = fx.svc.SetClassFee(ctx, fee.NewClassFee{ClassID: "x", Amount: decimal.NewFromInt(1)}); !core.IsNotFound(err) {
		t.Errorf("SetClassFee(unknown class) error = %v, want not found", err)
	}
}

func TestService_Reminders(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	testutil.SetClassFee(t, fx.stores.Fees, fx.classes[0].ID, fx.term.ID, 1000)
	testutil.SetClassFee(t, fx.stores.Fees, fx.classes[1].ID, fx.term.ID, 2000)
	owing := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0001", "A", "A", fx.classes[0].ID, "0712345678")
	paid := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0002", "B", "B", fx.classes[0].ID, "0722345678")
	other := testutil.CreateLearner(t, fx.stores.Learners, "LAA/2025/0003", "C", "C", fx.classes[1].ID, "0733345678")
	testutil.Pay(t, fx.stores.Payments, paid.ID, fx.term.ID, 1000)

	tests := []struct {
		name     string
		q        fee.ReminderQuery
		wantIDs  []string
		wantErr  bool
		notFound bool
	}{
		{name: "with balance", q: fee.ReminderQuery{Filter: fee.ReminderWithBalance}, wantIDs: []string{owing.ID, other.ID}},
		{name: "one class", q: fee.ReminderQuery{Filter: fee.ReminderWithBalance, ClassID: fx.classes[0].ID}, wantIDs: []string{owing.ID}},
		{name: "one class, all", q: fee.ReminderQuery{ClassID: fx.classes[1].ID}, wantIDs: []string{other.ID}},
		{name: "explicit term", q: fee.ReminderQuery{TermID: fx.term.ID, ClassID: fx.classes[0].ID}, wantIDs: []string{owing.ID, paid.ID}},
		{name: "unknown class", q: fee.ReminderQuery{ClassID: "nope"}, wantErr: true, notFound: true},
		{name: "unknown filter", q: fee.ReminderQuery{Filter: "bogus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fx.svc.Reminders(ctx, tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Reminders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.notFound && !core.IsNotFound(err) {
				t.Errorf("Reminders() error = %v, want not found", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Reminders() = %+v, want %v", got, tt.wantIDs)
			}
			ids := make(map[string]bool)
			for _, r := range got {
				ids[r.LearnerID] = true
				if r.Term != "Term 1 2025" {
					t.Errorf("Reminders() term = %q, want Term 1 2025", r.Term)
				}
			}
			for _, id := range tt.wantIDs {
				if !ids[id] {
					t.Errorf("Reminders() is missing %s", id)
				}
			}
		})
	}

	reminders, _ := fx.svc.Reminders(ctx, fee.ReminderQuery{ClassID: fx.classes[0].ID, Filter: fee.ReminderWithBalance})
	if len(reminders) != 1 || reminders[0].Phones[0] != "254712345678" {
		t.Errorf("Reminders() = %+v", reminders)
	}
}
