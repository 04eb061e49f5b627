package inmemdb

import (
	"context"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
)

type centerRepository struct {
	db *table[center.Center]
}

var _ center.Repository = (*centerRepository)(nil)

var centerComparators = comparators[center.Center]{
	"code":      func(a, b center.Center) int { return compareStrings(a.Code, b.Code) },
	"name":      func(a, b center.Center) int { return compareStrings(a.Name, b.Name) },
	"city":      func(a, b center.Center) int { return compareStrings(a.City, b.City) },
	"createdAt": func(a, b center.Center) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

func NewCenterRepository(db *DB) center.Repository {
	return &centerRepository{db: db.center}
}

func (repo *centerRepository) CreateCenter(_ context.Context, c center.Center) (center.Center, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows[c.ID] = c
	return c, nil
}

func (repo *centerRepository) GetCenterByID(_ context.Context, id string) (center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return c, nil
	}
	return center.Center{}, center.ErrNotFound
}

func (repo *centerRepository) GetCenterByCode(_ context.Context, code string) (center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.find(func(c center.Center) bool { return c.Code == code }); ok {
		return c, nil
	}
	return center.Center{}, center.ErrNotFound
}

func (repo *centerRepository) QueryCenters(_ context.Context, filter center.QueryFilter, ordering []core.DBOrdering) ([]center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	centers := repo.db.filter(filter.Match)
	orderBy(centers, ordering, centerComparators, func(c center.Center) time.Time { return c.CreatedAt })
	return centers, nil
}

func (repo *centerRepository) UpdateCenter(_ context.Context, c center.Center) (center.Center, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[c.ID]; !ok {
		return center.Center{}, center.ErrNotFound
	}
	repo.db.rows[c.ID] = c
	return c, nil
}

func (repo *centerRepository) DeleteCentersByID(_ context.Context, ids ...string) error {
	repo.db.delete(ids...)
	return nil
}
