package user

import (
	"strings"
	"time"

	"github.com/zawadi/chekechea/core"
)

// Roles
const (
	// Staff
	RoleStaff          = "staff:"
	RoleStaffPrincipal = "staff:principal"
	RoleStaffTeacher   = "staff:teacher"

	// Guardian
	RoleGuardian = "guardian:"
)

var (
	StaffRoles    = []string{RoleStaff, RoleStaffPrincipal, RoleStaffTeacher}
	GuardianRoles = []string{RoleGuardian}
	AllRoles      = getAllRoles()

	rolePriorities = map[string]int{
		// Staff: 30 - 11
		RoleStaffPrincipal: 30,
		RoleStaffTeacher:   21,
		RoleStaff:          11,

		// Guardians: 10 - 1
		RoleGuardian: 1,
	}

	Roles = []Role{
		{Name: "Guardian", Value: RoleGuardian},
		{Name: "Staff", Value: RoleStaff},
		{Name: "Teacher", Value: RoleStaffTeacher},
		{Name: "Principal", Value: RoleStaffPrincipal},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 4)
	all = append(all, StaffRoles...)
	all = append(all, GuardianRoles...)
	return all
}

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
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  *bool     `json:"is_active"`
	Roles     []string  `json:"roles"`
	RoomIDs   []string  `json:"room_ids,omitempty"` // rooms a teacher leads
	CreatedAt time.Time `json:"created_at"`         // UTC
	UpdatedAt time.Time `json:"updated_at"`         // UTC
	LastSeen  time.Time `json:"last_seen"`          // UTC
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsStaff() bool     { return u.RoleStartsWith(RoleStaff) }
func (u *User) IsGuardian() bool  { return u.RoleStartsWith(RoleGuardian) }
func (u *User) IsTeacher() bool   { return u.RoleStartsWith(RoleStaffTeacher) }
func (u *User) IsPrincipal() bool { return u.RoleStartsWith(RoleStaffPrincipal) }

func (u *User) Active() bool { return u.IsActive != nil && *u.IsActive }

// AudienceViewer projects the user into the audience rules. Teachers default
// to the rooms they lead; for guardians the caller passes the rooms of their
// linked children.
func (u *User) AudienceViewer(roomIDs ...[]string) core.Viewer {
	rooms := u.RoomIDs
	if len(roomIDs) > 0 {
		rooms = roomIDs[0]
	}
	return core.Viewer{
		UserID:      u.ID,
		OrgID:       u.OrgID,
		IsPrincipal: u.IsPrincipal(),
		IsStaff:     u.IsStaff(),
		IsTeacher:   u.IsTeacher() && !u.IsPrincipal(),
		IsGuardian:  u.IsGuardian(),
		RoomIDs:     rooms,
	}
}

// NewUser contains information needed to invite a new User.
type NewUser struct {
	Name    string   `json:"name" validate:"required"`
	Email   string   `json:"email" validate:"required,email"`
	Phone   string   `json:"phone" validate:"omitempty,min=7"`
	Roles   []string `json:"roles" validate:"required,allroles"`
	RoomIDs []string `json:"room_ids"`
}

func (nu *NewUser) Validate(svc ServiceInterface, orgID string) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(orgID, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string   `json:"name"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Phone    string   `json:"phone" validate:"omitempty,min=7"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles" validate:"omitempty,allroles"`
	RoomIDs  []string `json:"room_ids"`
}

func (uu *UpdateUser) Validate(origUsr User, svc ServiceInterface) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Phone != "" {
		uu.Phone = core.CleanString(uu.Phone)
	} else {
		uu.Phone = origUsr.Phone
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(origUsr.OrgID, uu.Email, origUsr)
}

// AcceptInvite activates an invited User.
type AcceptInvite struct {
	UID   string `json:"uid,omitempty" validate:"required"`
	Token string `json:"token,omitempty" validate:"required"`
}

func (ai AcceptInvite) Validate() error { return core.Validate.Struct(ai) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User. ID wins over Email; OrgID scopes Email lookups.
type GetFilter struct {
	ID    string
	OrgID string
	Email string
}
