// Package reconcile matches uploaded guardian phone rows against known learners before committing them.
package reconcile

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/school"
)

// Row is an uploaded record, as read from the spreadsheet.
type Row struct {
	Line        int    `json:"line"`
	AdmissionNo string `json:"admission_no"`
	Phone1      string `json:"phone_1"`
	Phone2      string `json:"phone_2"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
}

// Identity is a known learner, as far as reconciliation is concerned.
type Identity struct {
	LearnerID   string `json:"learner_id"`
	AdmissionNo string `json:"admission_no"`
	Name        string `json:"name"`
}

type IdentityLookup interface {
	Lookup(admissionNo string) (Identity, bool)
}

// FieldValidator validates the mutable fields of a matched row, returning their normalized values.
type FieldValidator interface {
	Validate(row Row) (Row, error)
}

type Record struct {
	Row
	Identity Identity `json:"identity"`
	Err      error    `json:"-"`
	Message  string   `json:"error,omitempty"`
}

// Dropped is a row skipped for lack of an admission number.
type Dropped struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Result struct {
	Valid    []Record  `json:"valid"`
	Invalid  []Record  `json:"invalid"`
	NotFound []Record  `json:"not_found"`
	Dropped  []Dropped `json:"dropped"`
}

// Rejected lists the invalid & not found records, in upload order.
func (r Result) Rejected() []Record {
	rejected := make([]Record, 0, len(r.Invalid)+len(r.NotFound))
	rejected = append(rejected, r.Invalid...)
	rejected = append(rejected, r.NotFound...)
	sort.SliceStable(rejected, func(i, j int) bool { return rejected[i].Line < rejected[j].Line })
	return rejected
}

const msgNoAdmissionNo = "row has no admission number; skipped"

// Reconcile classifies `rows`. It never writes anything.
func Reconcile(rows []Row, lookup IdentityLookup, validator FieldValidator) Result {
	res := Result{
		Valid:    make([]Record, 0),
		Invalid:  make([]Record, 0),
		NotFound: make([]Record, 0),
		Dropped:  make([]Dropped, 0),
	}
	for _, row := range rows {
		row.AdmissionNo = strings.TrimSpace(row.AdmissionNo)
		if row.AdmissionNo == "" {
			res.Dropped = append(res.Dropped, Dropped{Line: row.Line, Message: msgNoAdmissionNo})
			continue
		}

		ident, ok := lookup.Lookup(row.AdmissionNo)
		if !ok {
			err := core.NewNotFoundError("learner", row.AdmissionNo)
			res.NotFound = append(res.NotFound, Record{Row: row, Err: err, Message: err.Error()})
			continue
		}

		normalized, err := validator.Validate(row)
		if err != nil {
			res.Invalid = append(res.Invalid, Record{Row: row, Identity: ident, Err: err, Message: err.Error()})
			continue
		}
		res.Valid = append(res.Valid, Record{Row: normalized, Identity: ident})
	}
	return res
}

// IdentityTable is an IdentityLookup over a snapshot of learners. Admission numbers match case-insensitively.
type IdentityTable map[string]Identity

func NewIdentityTable(learners []school.Learner) IdentityTable {
	table := make(IdentityTable, len(learners))
	for _, lrn := range learners {
		table[strings.ToUpper(lrn.AdmissionNo)] = Identity{LearnerID: lrn.ID, AdmissionNo: lrn.AdmissionNo, Name: lrn.Name()}
	}
	return table
}

func (t IdentityTable) Lookup(admissionNo string) (Identity, bool) {
	ident, ok := t[strings.ToUpper(strings.TrimSpace(admissionNo))]
	return ident, ok
}

var ErrNoPhone = errors.New("at least one guardian phone is required")

// PhoneValidator validates the guardian phones of a row.
type PhoneValidator struct {
	Normalizer *phone.Normalizer
}

func (v PhoneValidator) Validate(row Row) (Row, error) {
	if phone.Clean(row.Phone1) == "" && phone.Clean(row.Phone2) == "" {
		return row, core.NewValidationError(ErrNoPhone, core.FieldError{Field: "phone_1", Error: ErrNoPhone.Error()})
	}

	fields := []struct {
		name string
		val  *string
	}{
		{name: "phone_1", val: &row.Phone1},
		{name: "phone_2", val: &row.Phone2},
	}
	for _, fld := range fields {
		if phone.Clean(*fld.val) == "" {
			*fld.val = ""
			continue
		}
		normalized, err := v.Normalizer.Normalize(*fld.val)
		if err != nil {
			return row, core.NewValidationError(errors.Wrap(err, fld.name), core.FieldError{Field: fld.name, Error: err.Error()})
		}
		*fld.val = normalized
	}
	return row, nil
}
