package inmemdb

import (
	"context"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/marksheet"
)

type marksheetRepository struct {
	db      *table[marksheet.Marksheet]
	serials *serialTable
}

var _ marksheet.Repository = (*marksheetRepository)(nil)

var marksheetComparators = comparators[marksheet.Marksheet]{
	"serialNo":  func(a, b marksheet.Marksheet) int { return compareStrings(a.SerialNo, b.SerialNo) },
	"semester":  func(a, b marksheet.Marksheet) int { return compareInts(a.Semester, b.Semester) },
	"year":      func(a, b marksheet.Marksheet) int { return compareInts(a.Year, b.Year) },
	"createdAt": func(a, b marksheet.Marksheet) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updatedAt": func(a, b marksheet.Marksheet) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
}

func NewMarksheetRepository(db *DB) marksheet.Repository {
	return &marksheetRepository{db: db.marksheet, serials: db.serials}
}

func copyMarksheet(ms marksheet.Marksheet) marksheet.Marksheet {
	ms.Subjects = append([]marksheet.SubjectRecord(nil), ms.Subjects...)
	return ms
}

func (repo *marksheetRepository) CreateMarksheet(_ context.Context, ms marksheet.Marksheet) (marksheet.Marksheet, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, other := range repo.db.rows {
		if other.StudentID == ms.StudentID && other.Semester == ms.Semester && other.Year == ms.Year {
			return marksheet.Marksheet{}, marksheet.ErrTermExists
		}
	}
	repo.db.rows[ms.ID] = copyMarksheet(ms)
	return ms, nil
}

func (repo *marksheetRepository) NextSerial(_ context.Context, year int) (int, error) {
	repo.serials.Lock()
	defer repo.serials.Unlock()
	repo.serials.seq[year]++
	return repo.serials.seq[year], nil
}

func (repo *marksheetRepository) GetMarksheetByID(_ context.Context, id string) (marksheet.Marksheet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ms, ok := repo.db.rows[id]; ok {
		return copyMarksheet(ms), nil
	}
	return marksheet.Marksheet{}, marksheet.ErrNotFound
}

func (repo *marksheetRepository) GetMarksheetBySerial(_ context.Context, serialNo string) (marksheet.Marksheet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ms, ok := repo.db.find(func(ms marksheet.Marksheet) bool { return ms.SerialNo == serialNo }); ok {
		return copyMarksheet(ms), nil
	}
	return marksheet.Marksheet{}, marksheet.ErrNotFound
}

func (repo *marksheetRepository) QueryMarksheets(_ context.Context, filter marksheet.QueryFilter, ordering []core.DBOrdering) ([]marksheet.Marksheet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	sheets := repo.db.filter(filter.Match)
	for i := range sheets {
		sheets[i] = copyMarksheet(sheets[i])
	}
	orderBy(sheets, ordering, marksheetComparators, func(ms marksheet.Marksheet) time.Time { return ms.CreatedAt })
	return sheets, nil
}

func (repo *marksheetRepository) UpdateMarksheet(_ context.Context, ms marksheet.Marksheet) (marksheet.Marksheet, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[ms.ID]; !ok {
		return marksheet.Marksheet{}, marksheet.ErrNotFound
	}
	repo.db.rows[ms.ID] = copyMarksheet(ms)
	return ms, nil
}

func (repo *marksheetRepository) DeleteMarksheetsByID(_ context.Context, ids ...string) error {
	repo.db.delete(ids...)
	return nil
}
