package inmemdb

import (
	"context"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/inquiry"
)

type inquiryRepository struct {
	db *table[inquiry.Inquiry]
}

var _ inquiry.Repository = (*inquiryRepository)(nil)

var inquiryComparators = comparators[inquiry.Inquiry]{
	"name":      func(a, b inquiry.Inquiry) int { return compareStrings(a.Name, b.Name) },
	"status":    func(a, b inquiry.Inquiry) int { return compareStrings(a.Status, b.Status) },
	"createdAt": func(a, b inquiry.Inquiry) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

func NewInquiryRepository(db *DB) inquiry.Repository {
	return &inquiryRepository{db: db.inquiry}
}

func (repo *inquiryRepository) CreateInquiry(_ context.Context, inq inquiry.Inquiry) (inquiry.Inquiry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows[inq.ID] = inq
	return inq, nil
}

func (repo *inquiryRepository) GetInquiryByID(_ context.Context, id string) (inquiry.Inquiry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inq, ok := repo.db.rows[id]; ok {
		return inq, nil
	}
	return inquiry.Inquiry{}, inquiry.ErrNotFound
}

func (repo *inquiryRepository) QueryInquiries(_ context.Context, filter inquiry.QueryFilter, ordering []core.DBOrdering) ([]inquiry.Inquiry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	inquiries := repo.db.filter(filter.Match)
	orderBy(inquiries, ordering, inquiryComparators, func(inq inquiry.Inquiry) time.Time { return inq.CreatedAt })
	return inquiries, nil
}

func (repo *inquiryRepository) UpdateInquiry(_ context.Context, inq inquiry.Inquiry) (inquiry.Inquiry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[inq.ID]; !ok {
		return inquiry.Inquiry{}, inquiry.ErrNotFound
	}
	repo.db.rows[inq.ID] = inq
	return inq, nil
}

func (repo *inquiryRepository) DeleteInquiriesByID(_ context.Context, ids ...string) error {
	repo.db.delete(ids...)
	return nil
}
