package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type classCatalog struct {
	db *classTable
}

var _ school.ClassCatalog = (*classCatalog)(nil) // interface compliance check

func NewClassCatalog(db *DB) *classCatalog {
	return &classCatalog{db: db.class}
}

// CreateClass adds reference data; classes are never modified afterwards.
func (cat *classCatalog) CreateClass(name string, level int) school.Class {
	cat.db.Lock()
	defer cat.db.Unlock()

	cls := school.Class{ID: newID(), Name: name, Level: level}
	cat.db.table[cls.ID] = &cls
	return cls
}

func (cat *classCatalog) ListClassesOrderedByLevel(context.Context) ([]school.Class, error) {
	cat.db.RLock()
	defer cat.db.RUnlock()

	classes := make([]school.Class, 0, len(cat.db.table))
	for _, cls := range cat.db.table {
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Level == classes[j].Level {
			return classes[i].Name < classes[j].Name
		}
		return classes[i].Level < classes[j].Level
	})
	return classes, nil
}

func (cat *classCatalog) GetClass(_ context.Context, id string) (school.Class, error) {
	cat.db.RLock()
	defer cat.db.RUnlock()

	if cls, ok := cat.db.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, core.NewNotFoundError("class", id)
}
