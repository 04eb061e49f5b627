package center

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
)

// Center is a training center affiliated to the institute. Center accounts manage their own students.
type Center struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	OwnerName string    `json:"ownerName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCenter contains information needed to create a new Center.
type NewCenter struct {
	Code      string `json:"code" validate:"required,max=20,alphanum_"`
	Name      string `json:"name" validate:"notblank,max=200"`
	OwnerName string `json:"ownerName" validate:"notblank,max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Address   string `json:"address" validate:"notblank,max=500"`
	City      string `json:"city" validate:"notblank,max=100"`
}

func (nc *NewCenter) Validate(validate *validator.Validate) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.OwnerName = core.CleanString(nc.OwnerName)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.Phone = core.CleanString(nc.Phone)
	nc.Address = core.CleanString(nc.Address)
	nc.City = core.CleanString(nc.City)
	return validate.Struct(nc)
}

// UpdateCenter defines the profile fields a center may change. Blank fields keep their value.
type UpdateCenter struct {
	Name      string `json:"name" validate:"max=200"`
	OwnerName string `json:"ownerName" validate:"max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Address   string `json:"address" validate:"max=500"`
	City      string `json:"city" validate:"max=100"`
	IsActive  *bool  `json:"isActive"` // admin only
}

func (uc *UpdateCenter) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.OwnerName = core.CleanString(uc.OwnerName)
	uc.Email = core.CleanString(uc.Email, true /* lower */)
	uc.Phone = core.CleanString(uc.Phone)
	uc.Address = core.CleanString(uc.Address)
	uc.City = core.CleanString(uc.City)
	return validate.Struct(uc)
}

func (uc UpdateCenter) apply(c Center) Center {
	set := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	set(&c.Name, uc.Name)
	set(&c.OwnerName, uc.OwnerName)
	set(&c.Email, uc.Email)
	set(&c.Phone, uc.Phone)
	set(&c.Address, uc.Address)
	set(&c.City, uc.City)
	if uc.IsActive != nil {
		c.IsActive = *uc.IsActive
	}
	return c
}

type QueryFilter struct {
	Search   string `query:"search"`
	City     string `query:"city"`
	IsActive *bool  `query:"isActive"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.City = core.CleanString(qf.City)
}

func (qf QueryFilter) Match(c Center) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(c.Name), s) || strings.Contains(strings.ToLower(c.Code), s)) {
			return false
		}
	}
	if qf.City != "" && !strings.EqualFold(c.City, qf.City) {
		return false
	}
	return qf.IsActive == nil || c.IsActive == *qf.IsActive
}
