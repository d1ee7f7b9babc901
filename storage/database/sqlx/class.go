package sqlxrepos

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type classCatalog struct {
	db core.DB
}

var _ school.ClassCatalog = (*classCatalog)(nil) // interface compliance check

func NewClassCatalog(db core.DB) *classCatalog {
	return &classCatalog{db: db}
}

func (cat classCatalog) ListClassesOrderedByLevel(ctx context.Context) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	if err := cat.db.SelectContext(ctx, &classes, "SELECT id, name, level FROM classes ORDER BY level, name"); err != nil {
		return nil, trapErr(err, "class", "", "listing classes")
	}
	return classes, nil
}

func (cat classCatalog) GetClass(ctx context.Context, id string) (school.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Class{}, core.NewNotFoundError("class", id)
	}
	var cls school.Class
	if err := cat.db.GetContext(ctx, &cls, "SELECT id, name, level FROM classes WHERE id = $1", id); err != nil {
		return school.Class{}, trapErr(err, "class", id, "getting class")
	}
	return cls, nil
}

// CreateClass inserts a class, or renumbers it if the name is taken.
func (cat classCatalog) CreateClass(ctx context.Context, name string, level int) (school.Class, error) {
	cls := school.Class{ID: uuid.New().String(), Name: core.CleanString(name), Level: level}
	q := `INSERT INTO classes (id, name, level) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET level = EXCLUDED.level
		RETURNING id, name, level`
	if err := cat.db.GetContext(ctx, &cls, q, cls.ID, cls.Name, cls.Level); err != nil {
		return school.Class{}, trapErr(err, "", "", "inserting class")
	}
	return cls, nil
}
