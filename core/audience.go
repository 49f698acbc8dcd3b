package core

import "github.com/go-playground/validator/v10"

// Audience controls who in an org may see a story or announcement.
type Audience string

const (
	// AudienceOrg is visible to everyone in the org.
	AudienceOrg Audience = "org"
	// AudienceStaff is visible to staff only; never to guardians.
	AudienceStaff Audience = "staff"
	// AudienceRooms is visible to staff of the listed rooms and to
	// guardians of children in them.
	AudienceRooms Audience = "rooms"
)

var Audiences = []Audience{AudienceOrg, AudienceStaff, AudienceRooms}

func (a Audience) Valid() bool {
	for _, known := range Audiences {
		if a == known {
			return true
		}
	}
	return false
}

// Viewer is the audience-relevant projection of the authenticated user.
// RoomIDs are the rooms a teacher leads, or the rooms of a guardian's
// linked children; empty for base staff and principals.
type Viewer struct {
	UserID      string
	OrgID       string
	IsPrincipal bool
	IsStaff     bool
	IsTeacher   bool
	IsGuardian  bool
	RoomIDs     []string
}

// Visibility is embedded by audience-scoped content (stories, announcements).
type Visibility struct {
	Audience Audience `json:"audience"`
	RoomIDs  []string `json:"room_ids,omitempty"`
}

// VisibleTo decides whether a viewer may see content belonging to orgID.
// Repositories build the same rules as SQL OR-filters; this is the safety-net
// pass services run on every row coming back from the database. The two must
// agree.
func (v Visibility) VisibleTo(viewer Viewer, orgID string) bool {
	if viewer.OrgID != orgID {
		return false
	}
	if viewer.IsPrincipal {
		return true
	}

	switch v.Audience {
	case AudienceOrg:
		return true
	case AudienceStaff:
		return viewer.IsStaff
	case AudienceRooms:
		if viewer.IsStaff && !viewer.IsTeacher {
			return true
		}
		return intersects(v.RoomIDs, viewer.RoomIDs)
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// audienceValidation backs the `audience` validator tag.
func audienceValidation(fl validator.FieldLevel) bool {
	return Audience(fl.Field().String()).Valid()
}
