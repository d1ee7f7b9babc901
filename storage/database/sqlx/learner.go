package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const learnerColumns = `id, admission_no, first_name, last_name, gender, date_of_birth, class_id,
	guardian_phone, guardian_phone_2, active, graduated, archived, created_at, updated_at`

type learnerRow struct {
	ID             string      `db:"id"`
	AdmissionNo    string      `db:"admission_no"`
	FirstName      string      `db:"first_name"`
	LastName       string      `db:"last_name"`
	Gender         null.String `db:"gender"`
	DateOfBirth    null.Time   `db:"date_of_birth"`
	ClassID        null.String `db:"class_id"`
	GuardianPhone  null.String `db:"guardian_phone"`
	GuardianPhone2 null.String `db:"guardian_phone_2"`
	Active         bool        `db:"active"`
	Graduated      bool        `db:"graduated"`
	Archived       bool        `db:"archived"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type learnerStore struct {
	db core.DB
}

var _ school.LearnerStore = (*learnerStore)(nil) // interface compliance check

func NewLearnerStore(db core.DB) *learnerStore {
	return &learnerStore{db: db}
}

func (store learnerStore) boil(lrn school.Learner) learnerRow {
	return learnerRow{
		ID:             lrn.ID,
		AdmissionNo:    lrn.AdmissionNo,
		FirstName:      lrn.FirstName,
		LastName:       lrn.LastName,
		Gender:         null.NewString(lrn.Gender, lrn.Gender != ""),
		DateOfBirth:    null.NewTime(lrn.DateOfBirth.UTC(), !lrn.DateOfBirth.IsZero()),
		ClassID:        null.NewString(lrn.ClassID, lrn.ClassID != ""),
		GuardianPhone:  null.NewString(lrn.GuardianPhone, lrn.GuardianPhone != ""),
		GuardianPhone2: null.NewString(lrn.GuardianPhone2, lrn.GuardianPhone2 != ""),
		Active:         lrn.Active,
		Graduated:      lrn.Graduated,
		Archived:       lrn.Archived,
		CreatedAt:      lrn.CreatedAt.UTC(),
		UpdatedAt:      lrn.UpdatedAt.UTC(),
	}
}

func (store learnerStore) unboil(row learnerRow) school.Learner {
	return school.Learner{
		ID:             row.ID,
		AdmissionNo:    row.AdmissionNo,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Gender:         row.Gender.String,
		DateOfBirth:    row.DateOfBirth.Time,
		ClassID:        row.ClassID.String,
		GuardianPhone:  row.GuardianPhone.String,
		GuardianPhone2: row.GuardianPhone2.String,
		Active:         row.Active,
		Graduated:      row.Graduated,
		Archived:       row.Archived,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func (store learnerStore) unboilSlice(rows []learnerRow) []school.Learner {
	learners := make([]school.Learner, 0, len(rows))
	for _, row := range rows {
		learners = append(learners, store.unboil(row))
	}
	return learners
}

func (store learnerStore) get(ctx context.Context, key, where string, args ...interface{}) (school.Learner, error) {
	var row learnerRow
	q := fmt.Sprintf("SELECT %s FROM learners WHERE %s", learnerColumns, where)
	if err := store.db.GetContext(ctx, &row, q, args...); err != nil {
		return school.Learner{}, trapErr(err, "learner", key, "getting learner")
	}
	return store.unboil(row), nil
}

func (store learnerStore) GetLearner(ctx context.Context, id string) (school.Learner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Learner{}, core.NewNotFoundError("learner", id)
	}
	return store.get(ctx, id, "id = $1", id)
}

func (store learnerStore) GetLearnerByAdmissionNo(ctx context.Context, admissionNo string) (school.Learner, error) {
	return store.get(ctx, admissionNo, "UPPER(admission_no) = UPPER($1)", admissionNo)
}

func (store learnerStore) ListActiveLearnersByClass(ctx context.Context, classID string) ([]school.Learner, error) {
	return store.ListLearners(ctx, school.LearnerFilter{ClassID: classID})
}

func (store learnerStore) ListLearners(ctx context.Context, filter school.LearnerFilter) ([]school.Learner, error) {
	var conds []string
	var args []interface{}
	if filter.ClassID != "" {
		if _, err := uuid.Parse(filter.ClassID); err != nil {
			return []school.Learner{}, nil
		}
		args = append(args, filter.ClassID)
		conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if !filter.IncludeInactive {
		conds = append(conds, "active AND NOT graduated AND NOT archived")
	}

	q := "SELECT " + learnerColumns + " FROM learners"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY admission_no"

	var rows []learnerRow
	if err := store.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "learner", "", "listing learners")
	}
	return store.unboilSlice(rows), nil
}

func (store learnerStore) CountAdmissionNumbers(ctx context.Context, prefix string) (int, error) {
	var count int
	err := store.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM learners WHERE admission_no LIKE $1 || '%'", prefix)
	if err != nil {
		return 0, trapErr(err, "", "", "counting admission numbers")
	}
	return count, nil
}

func (store learnerStore) CreateLearner(ctx context.Context, lrn school.Learner) (school.Learner, error) {
	lrn.ID = uuid.New().String()
	now := time.Now().UTC()
	lrn.CreatedAt, lrn.UpdatedAt = now, now

	q := `INSERT INTO learners (` + learnerColumns + `) VALUES (
		:id, :admission_no, :first_name, :last_name, :gender, :date_of_birth, :class_id,
		:guardian_phone, :guardian_phone_2, :active, :graduated, :archived, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, store.db, q, store.boil(lrn)); err != nil {
		if isUniqueViolation(err) {
			return school.Learner{}, core.NewValidationError(nil, core.FieldError{
				Field: "admission_no",
				Error: "a learner with this admission number already exists",
			})
		}
		return school.Learner{}, trapErr(err, "", "", "inserting learner")
	}
	return lrn, nil
}

func (store learnerStore) update(ctx context.Context, id, set string, args ...interface{}) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.NewNotFoundError("learner", id)
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE learners SET %s, updated_at = NOW() WHERE id = $%d", set, len(args))
	res, err := store.db.ExecContext(ctx, q, args...)
	return checkAffected(res, err, "learner", id, "updating learner")
}

func (store learnerStore) UpdateLearnerClass(ctx context.Context, id, classID string) error {
	return store.update(ctx, id, "class_id = $1", classID)
}

func (store learnerStore) UpdateGuardianPhones(ctx context.Context, id, phone1, phone2 string) error {
	return store.update(ctx, id, "guardian_phone = $1, guardian_phone_2 = $2",
		null.NewString(phone1, phone1 != ""), null.NewString(phone2, phone2 != ""))
}

func (store learnerStore) SetLearnerArchived(ctx context.Context, id string) error {
	return store.update(ctx, id, "archived = TRUE, active = FALSE")
}

func (store learnerStore) SetLearnerGraduated(ctx context.Context, id string) error {
	return store.update(ctx, id, "graduated = TRUE, active = FALSE")
}
