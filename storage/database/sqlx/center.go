package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
)

type centerRepository struct {
	db *sqlx.DB
}

var _ center.Repository = (*centerRepository)(nil)

var centerColumns = map[string]string{
	"code":      "code",
	"name":      "name",
	"city":      "city",
	"createdAt": "created_at",
}

type centerRow struct {
	ID        string      `db:"id"`
	Code      string      `db:"code"`
	Name      string      `db:"name"`
	OwnerName null.String `db:"owner_name"`
	Email     null.String `db:"email"`
	Phone     null.String `db:"phone"`
	Address   null.String `db:"address"`
	City      null.String `db:"city"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

const centerSelect = `SELECT id, code, name, owner_name, email, phone, address, city, is_active,
	created_at, updated_at FROM centers`

func NewCenterRepository(db *sqlx.DB) center.Repository {
	return &centerRepository{db: db}
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func toCenterRow(c center.Center) centerRow {
	return centerRow{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		OwnerName: nullString(c.OwnerName),
		Email:     nullString(c.Email),
		Phone:     nullString(c.Phone),
		Address:   nullString(c.Address),
		City:      nullString(c.City),
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (r centerRow) center() center.Center {
	return center.Center{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		OwnerName: r.OwnerName.String,
		Email:     r.Email.String,
		Phone:     r.Phone.String,
		Address:   r.Address.String,
		City:      r.City.String,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *centerRepository) CreateCenter(ctx context.Context, c center.Center) (center.Center, error) {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO centers
	(id, code, name, owner_name, email, phone, address, city, is_active, created_at, updated_at)
	VALUES (:id, :code, :name, :owner_name, :email, :phone, :address, :city, :is_active, :created_at, :updated_at)`,
		toCenterRow(c))
	if err != nil {
		return center.Center{}, errors.Wrap(err, "inserting center")
	}
	return c, nil
}

func (repo *centerRepository) GetCenterByID(ctx context.Context, id string) (center.Center, error) {
	var r centerRow
	if err := repo.db.GetContext(ctx, &r, centerSelect+" WHERE id = $1", id); err != nil {
		return center.Center{}, notFound(err, center.ErrNotFound, "selecting center")
	}
	return r.center(), nil
}

func (repo *centerRepository) GetCenterByCode(ctx context.Context, code string) (center.Center, error) {
	var r centerRow
	if err := repo.db.GetContext(ctx, &r, centerSelect+" WHERE code = $1", code); err != nil {
		return center.Center{}, notFound(err, center.ErrNotFound, "selecting center")
	}
	return r.center(), nil
}

func (repo *centerRepository) QueryCenters(ctx context.Context, filter center.QueryFilter, ordering []core.DBOrdering) ([]center.Center, error) {
	filter.Clean()
	var w where
	w.search(filter.Search, "name", "code")
	if filter.City != "" {
		w.add("lower(city) = lower(?)", filter.City)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	var rows []centerRow
	q := repo.db.Rebind(centerSelect + w.String() + orderBy(ordering, centerColumns))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting centers")
	}
	centers := make([]center.Center, 0, len(rows))
	for _, r := range rows {
		centers = append(centers, r.center())
	}
	return centers, nil
}

func (repo *centerRepository) UpdateCenter(ctx context.Context, c center.Center) (center.Center, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE centers SET
	code = :code, name = :name, owner_name = :owner_name, email = :email, phone = :phone, address = :address,
	city = :city, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`, toCenterRow(c))
	if err != nil {
		return center.Center{}, errors.Wrap(err, "updating center")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return center.Center{}, center.ErrNotFound
	}
	return c, nil
}

func (repo *centerRepository) DeleteCentersByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "centers", ids)
}
