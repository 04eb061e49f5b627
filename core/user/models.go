package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/paramedico/console/core"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleCenter = "center"
)

var (
	AllRoles = []string{RoleAdmin, RoleCenter}

	rolePriorities = map[string]int{
		RoleAdmin:  20,
		RoleCenter: 10,
	}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Center", Value: RoleCenter},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	Roles        []string  `json:"roles"`
	CenterID     string    `json:"centerId,omitempty"` // set for center accounts
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasRole(role string) bool {
	return core.StringInSlice(role, u.Roles)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) IsCenter() bool {
	return u.HasRole(RoleCenter)
}

// Actor returns who is acting when u makes a request.
func (u *User) Actor() Actor {
	return NewActor(u.ID, u.Roles, u.CenterID)
}

// Actor identifies the user behind an operation. It is built per request and passed explicitly to services.
type Actor struct {
	UserID   string
	Role     string // RoleAdmin or RoleCenter
	CenterID string
}

// NewActor resolves the acting role: admin wins over center.
func NewActor(userID string, roles []string, centerID string) Actor {
	role := RoleAdmin
	if !core.StringInSlice(RoleAdmin, roles) && core.StringInSlice(RoleCenter, roles) {
		role = RoleCenter
	}
	return Actor{UserID: userID, Role: role, CenterID: centerID}
}

func (a Actor) IsCenter() bool { return a.Role == RoleCenter }

// CanAccessCenter reports whether the actor may read or write data owned by centerID.
func (a Actor) CanAccessCenter(centerID string) bool {
	return !a.IsCenter() || (a.CenterID != "" && a.CenterID == centerID)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"required,min=1,allroles"`
	CenterID        string   `json:"centerId"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.CenterID = core.CleanString(nu.CenterID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string  `json:"name"`
	Email           string  `json:"email" validate:"omitempty,email"`
	IsActive        *bool   `json:"isActive"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
	CenterID        *string `json:"centerId"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(origUsr.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"isActive"`
	CenterID string   `query:"centerId"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CenterID = core.CleanString(qf.CenterID)
}

// Match applies an AND on the set filter fields. Search is a case-insensitive match on name, username or email.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(usr.Name), s) ||
			strings.Contains(usr.Username, s) ||
			strings.Contains(usr.Email, s)) {
			return false
		}
	}
	if len(qf.Roles) > 0 {
		var found bool
		for _, r := range qf.Roles {
			if usr.HasRole(r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if qf.CenterID != "" && usr.CenterID != qf.CenterID {
		return false
	}
	return true
}
