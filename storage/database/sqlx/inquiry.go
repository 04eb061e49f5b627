package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/inquiry"
)

type inquiryRepository struct {
	db *sqlx.DB
}

var _ inquiry.Repository = (*inquiryRepository)(nil)

var inquiryColumns = map[string]string{
	"name":      "name",
	"status":    "status",
	"createdAt": "created_at",
}

type inquiryRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Email     null.String `db:"email"`
	Phone     null.String `db:"phone"`
	CourseID  null.String `db:"course_id"`
	Message   null.String `db:"message"`
	Source    string      `db:"source"`
	Status    string      `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

const inquirySelect = `SELECT id, name, email, phone, course_id, message, source, status, created_at, updated_at FROM inquiries`

func NewInquiryRepository(db *sqlx.DB) inquiry.Repository {
	return &inquiryRepository{db: db}
}

func toInquiryRow(inq inquiry.Inquiry) inquiryRow {
	return inquiryRow{
		ID:        inq.ID,
		Name:      inq.Name,
		Email:     nullString(inq.Email),
		Phone:     nullString(inq.Phone),
		CourseID:  nullString(inq.CourseID),
		Message:   nullString(inq.Message),
		Source:    inq.Source,
		Status:    inq.Status,
		CreatedAt: inq.CreatedAt.UTC(),
		UpdatedAt: inq.UpdatedAt.UTC(),
	}
}

func (r inquiryRow) inquiry() inquiry.Inquiry {
	return inquiry.Inquiry{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email.String,
		Phone:     r.Phone.String,
		CourseID:  r.CourseID.String,
		Message:   r.Message.String,
		Source:    r.Source,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *inquiryRepository) CreateInquiry(ctx context.Context, inq inquiry.Inquiry) (inquiry.Inquiry, error) {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO inquiries
	(id, name, email, phone, course_id, message, source, status, created_at, updated_at)
	VALUES (:id, :name, :email, :phone, :course_id, :message, :source, :status, :created_at, :updated_at)`,
		toInquiryRow(inq))
	if err != nil {
		return inquiry.Inquiry{}, errors.Wrap(err, "inserting inquiry")
	}
	return inq, nil
}

func (repo *inquiryRepository) GetInquiryByID(ctx context.Context, id string) (inquiry.Inquiry, error) {
	var r inquiryRow
	if err := repo.db.GetContext(ctx, &r, inquirySelect+" WHERE id = $1", id); err != nil {
		return inquiry.Inquiry{}, notFound(err, inquiry.ErrNotFound, "selecting inquiry")
	}
	return r.inquiry(), nil
}

func (repo *inquiryRepository) QueryInquiries(ctx context.Context, filter inquiry.QueryFilter, ordering []core.DBOrdering) ([]inquiry.Inquiry, error) {
	filter.Clean()
	var w where
	w.search(filter.Search, "name", "coalesce(email, '')", "coalesce(phone, '')")
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Source != "" {
		w.add("source = ?", filter.Source)
	}
	if filter.CourseID != "" {
		w.add("course_id = ?", filter.CourseID)
	}

	var rows []inquiryRow
	q := repo.db.Rebind(inquirySelect + w.String() + orderBy(ordering, inquiryColumns))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting inquiries")
	}
	inquiries := make([]inquiry.Inquiry, 0, len(rows))
	for _, r := range rows {
		inquiries = append(inquiries, r.inquiry())
	}
	return inquiries, nil
}

func (repo *inquiryRepository) UpdateInquiry(ctx context.Context, inq inquiry.Inquiry) (inquiry.Inquiry, error) {
	res, err := repo.db.NamedExecContext(ctx, "UPDATE inquiries SET status = :status, updated_at = :updated_at WHERE id = :id",
		toInquiryRow(inq))
	if err != nil {
		return inquiry.Inquiry{}, errors.Wrap(err, "updating inquiry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inquiry.Inquiry{}, inquiry.ErrNotFound
	}
	return inq, nil
}

func (repo *inquiryRepository) DeleteInquiriesByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "inquiries", ids)
}
