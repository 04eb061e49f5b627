package center

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("center not found")
	ErrCodeExists = errors.New("a center with this code already exists")
)

type (
	Repository interface {
		CreateCenter(ctx context.Context, c Center) (Center, error)
		GetCenterByID(ctx context.Context, id string) (Center, error)
		GetCenterByCode(ctx context.Context, code string) (Center, error)
		QueryCenters(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Center, error)
		UpdateCenter(ctx context.Context, c Center) (Center, error)
		DeleteCentersByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, nc NewCenter) (Center, error)
		GetByID(ctx context.Context, id string) (Center, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Center, error)
		Update(ctx context.Context, c Center, uc UpdateCenter) (Center, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewCenter) (Center, error) {
	_, err := svc.repo.GetCenterByCode(ctx, nc.Code)
	switch errors.Cause(err) {
	case nil:
		return Center{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	case ErrNotFound: // pass
	default:
		return Center{}, errors.Wrap(err, "finding center by code")
	}

	now := NowFunc().UTC()
	return svc.repo.CreateCenter(ctx, Center{
		ID:        uuid.New().String(),
		Code:      nc.Code,
		Name:      nc.Name,
		OwnerName: nc.OwnerName,
		Email:     nc.Email,
		Phone:     nc.Phone,
		Address:   nc.Address,
		City:      nc.City,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) GetByID(ctx context.Context, id string) (Center, error) {
	return svc.repo.GetCenterByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Center, error) {
	return svc.repo.QueryCenters(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, c Center, uc UpdateCenter) (Center, error) {
	c = uc.apply(c)
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCenter(ctx, c)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCentersByID(ctx, ids...)
}
