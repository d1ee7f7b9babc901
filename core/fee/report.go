package fee

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
)

var hundred = decimal.NewFromInt(100)

// LearnerBalance is one report line: a learner, their class and their resolved balance for the term.
type LearnerBalance struct {
	Learner school.Learner `json:"learner"`
	Class   school.Class   `json:"class"`
	Fee     EffectiveFee   `json:"fee"`
	Balance Balance        `json:"balance"`
}

type Totals struct {
	Learners     int             `json:"learners"`
	Expected     decimal.Decimal `json:"expected"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
	Percentage   float64         `json:"percentage"`
	PaidCount    int             `json:"paid_count"`
	PartialCount int             `json:"partial_count"`
	UnpaidCount  int             `json:"unpaid_count"`
}

func (t *Totals) add(lb LearnerBalance) {
	t.Learners++
	t.Expected = t.Expected.Add(lb.Balance.EffectiveFee)
	t.Paid = t.Paid.Add(lb.Balance.TotalPaid)
	t.Balance = t.Balance.Add(lb.Balance.Balance)
	switch lb.Balance.Status {
	case StatusPaid:
		t.PaidCount++
	case StatusPartial:
		t.PartialCount++
	case StatusUnpaid:
		t.UnpaidCount++
	}
}

func (t *Totals) close() {
	t.Percentage = Percentage(t.Paid, t.Expected)
}

type ClassSummary struct {
	Class school.Class `json:"class"`
	Totals
}

type SchoolSummary struct {
	Totals
}

// Percentage is paid/expected*100 rounded to one decimal place, and 0 when nothing is expected.
func Percentage(paid, expected decimal.Decimal) float64 {
	if expected.IsZero() {
		return 0
	}
	return paid.Mul(hundred).Div(expected).Round(1).InexactFloat64()
}

func newTotals() Totals {
	return Totals{Expected: decimal.Zero, Paid: decimal.Zero, Balance: decimal.Zero}
}

// AggregateByClass rolls `entries` up per class, ordered by class level (then name).
func AggregateByClass(entries []LearnerBalance) []ClassSummary {
	byClass := make(map[string]*ClassSummary)
	for _, lb := range entries {
		sum, ok := byClass[lb.Class.ID]
		if !ok {
			sum = &ClassSummary{Class: lb.Class, Totals: newTotals()}
			byClass[lb.Class.ID] = sum
		}
		sum.add(lb)
	}

	summaries := make([]ClassSummary, 0, len(byClass))
	for _, sum := range byClass {
		sum.close()
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		ci, cj := summaries[i].Class, summaries[j].Class
		if ci.Level != cj.Level {
			return ci.Level < cj.Level
		}
		if ci.Name != cj.Name {
			return ci.Name < cj.Name
		}
		return ci.ID < cj.ID
	})
	return summaries
}

func AggregateTotals(entries []LearnerBalance) SchoolSummary {
	sum := SchoolSummary{Totals: newTotals()}
	for _, lb := range entries {
		sum.add(lb)
	}
	sum.close()
	return sum
}

// FilterByStatus keeps the entries in `status`; an empty status keeps everything.
func FilterByStatus(entries []LearnerBalance, status Status) []LearnerBalance {
	if status == "" {
		return entries
	}
	filtered := make([]LearnerBalance, 0, len(entries))
	for _, lb := range entries {
		if lb.Balance.Status == status {
			filtered = append(filtered, lb)
		}
	}
	return filtered
}

// Reminder recipient filters
const (
	ReminderAll         = "all"
	ReminderWithBalance = "with_balance"
	ReminderOverpaid    = "overpaid"
)

var ErrUnknownReminderFilter = errors.New("unknown reminder filter")

// ReminderQuery selects reminder recipients. Empty fields mean the active term, every class and filter `all`.
type ReminderQuery struct {
	TermID  string
	ClassID string
	Filter  string
}

// Reminder is a fee reminder recipient. Phones are in gateway form (254XXXXXXXXX).
type Reminder struct {
	LearnerID   string          `json:"learner_id"`
	AdmissionNo string          `json:"admission_no"`
	Name        string          `json:"name"`
	ClassName   string          `json:"class_name"`
	Phones      []string        `json:"phones"`
	Balance     decimal.Decimal `json:"balance"`
	Term        string          `json:"term"`
}

// Reminders selects the learners of `term` matching `q` that have at least one usable guardian phone.
func Reminders(entries []LearnerBalance, q ReminderQuery, term school.Term, n *phone.Normalizer) ([]Reminder, error) {
	var match func(b Balance) bool
	switch q.Filter {
	case ReminderAll, "":
		match = func(Balance) bool { return true }
	case ReminderWithBalance:
		match = func(b Balance) bool { return b.Balance.IsPositive() }
	case ReminderOverpaid:
		match = Balance.Overpaid
	default:
		return nil, errors.Wrap(ErrUnknownReminderFilter, q.Filter)
	}

	reminders := make([]Reminder, 0)
	for _, lb := range entries {
		if q.ClassID != "" && lb.Class.ID != q.ClassID {
			continue
		}
		if !match(lb.Balance) {
			continue
		}
		var phones []string
		for _, raw := range lb.Learner.GuardianPhones() {
			if normalized, err := n.Normalize(raw); err == nil {
				phones = append(phones, phone.International(normalized))
			}
		}
		if len(phones) == 0 {
			continue
		}
		reminders = append(reminders, Reminder{
			LearnerID:   lb.Learner.ID,
			AdmissionNo: lb.Learner.AdmissionNo,
			Name:        lb.Learner.Name(),
			ClassName:   lb.Class.Name,
			Phones:      phones,
			Balance:     lb.Balance.Balance,
			Term:        term.Label(),
		})
	}
	return reminders, nil
}

// RenderReminder fills the {{name}}, {{admission_no}}, {{balance}}, {{class}} and {{term}} placeholders of
// `template`. Placeholders of empty fields are left as they are.
func RenderReminder(template string, r Reminder) string {
	pairs := []string{"{{balance}}", r.Balance.String()}
	for placeholder, value := range map[string]string{
		"{{name}}":         r.Name,
		"{{admission_no}}": r.AdmissionNo,
		"{{class}}":        r.ClassName,
		"{{term}}":         r.Term,
	} {
		if value != "" {
			pairs = append(pairs, placeholder, value)
		}
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
