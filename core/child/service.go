package child

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound     = errors.New("child not found")
	ErrRoomNotFound = errors.New("room not found")
	ErrLinkExists   = errors.New("guardian is already linked to this child")
	ErrNotGuardian  = errors.New("user is not a guardian")
)

type (
	Repository interface {
		CreateRoom(ctx context.Context, r Room, exec ...core.DBExecutor) (Room, error)
		QueryRooms(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]Room, error)
		GetRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Room, error)
		UpdateRoom(ctx context.Context, r Room, exec ...core.DBExecutor) (Room, error)
		DeleteRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error

		CreateChild(ctx context.Context, c Child, exec ...core.DBExecutor) (Child, error)
		// QueryChildren excludes soft-deleted rows.
		QueryChildren(ctx context.Context, orgID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Child, error)
		GetChild(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Child, error)
		UpdateChild(ctx context.Context, c Child, exec ...core.DBExecutor) (Child, error)

		LinkGuardian(ctx context.Context, link GuardianLink, exec ...core.DBExecutor) error
		UnlinkGuardian(ctx context.Context, childID, guardianID string, exec ...core.DBExecutor) error
		QueryGuardianIDs(ctx context.Context, childID string, exec ...core.DBExecutor) ([]string, error)
		// QueryChildrenOfGuardian returns the guardian's non-deleted children.
		QueryChildrenOfGuardian(ctx context.Context, guardianID string, exec ...core.DBExecutor) ([]Child, error)
	}

	ServiceInterface interface {
		CreateRoom(ctx context.Context, orgID string, nr NewRoom) (Room, error)
		QueryRooms(ctx context.Context, orgID string) ([]Room, error)
		GetRoom(ctx context.Context, orgID, id string) (Room, error)
		RenameRoom(ctx context.Context, origRoom Room, nr NewRoom) (Room, error)
		DeleteRoom(ctx context.Context, orgID, id string) error

		Create(ctx context.Context, orgID string, nc NewChild) (Child, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Child, error)
		GetByID(ctx context.Context, orgID, id string) (Child, error)
		Update(ctx context.Context, origChild Child, uc UpdateChild) (Child, error)
		SoftDelete(ctx context.Context, origChild Child) error

		LinkGuardian(ctx context.Context, childID, guardianID string, ngl NewGuardianLink) error
		UnlinkGuardian(ctx context.Context, childID, guardianID string) error
		GuardianIDs(ctx context.Context, childID string) ([]string, error)
		ChildrenOfGuardian(ctx context.Context, guardianID string) ([]Child, error)
		// GuardianRoomIDs resolves the rooms of a guardian's children, for
		// audience checks.
		GuardianRoomIDs(ctx context.Context, guardianID string) ([]string, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

func (svc *service) CreateRoom(ctx context.Context, orgID string, nr NewRoom) (Room, error) {
	now := time.Now().UTC()
	return svc.repo.CreateRoom(ctx, Room{
		OrgID:     orgID,
		Name:      nr.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) QueryRooms(ctx context.Context, orgID string) ([]Room, error) {
	return svc.repo.QueryRooms(ctx, orgID)
}

func (svc *service) GetRoom(ctx context.Context, orgID, id string) (Room, error) {
	return svc.repo.GetRoom(ctx, orgID, id)
}

func (svc *service) RenameRoom(ctx context.Context, origRoom Room, nr NewRoom) (Room, error) {
	r := origRoom
	r.Name = nr.Name
	r.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRoom(ctx, r)
}

func (svc *service) DeleteRoom(ctx context.Context, orgID, id string) error {
	return svc.repo.DeleteRoom(ctx, orgID, id)
}

func (svc *service) Create(ctx context.Context, orgID string, nc NewChild) (Child, error) {
	// room must exist in this org
	if _, err := svc.repo.GetRoom(ctx, orgID, nc.RoomID); err != nil {
		if err == ErrRoomNotFound {
			return Child{}, core.NewValidationError(err, core.FieldError{Field: "room_id", Error: err.Error()})
		}
		return Child{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateChild(ctx, Child{
		OrgID:     orgID,
		RoomID:    nc.RoomID,
		Name:      nc.Name,
		Birthdate: nc.Birthdate,
		Allergies: nc.Allergies,
		Notes:     nc.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Child, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	return svc.repo.QueryChildren(ctx, orgID, filter)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (Child, error) {
	c, err := svc.repo.GetChild(ctx, orgID, id)
	if err != nil {
		return Child{}, err
	}
	if c.Deleted() {
		return Child{}, ErrNotFound
	}
	return c, nil
}

func (svc *service) Update(ctx context.Context, origChild Child, uc UpdateChild) (Child, error) {
	c := origChild
	c.RoomID = uc.RoomID
	c.Name = uc.Name
	c.Birthdate = uc.Birthdate
	if uc.Allergies != nil {
		c.Allergies = core.CleanString(*uc.Allergies)
	}
	if uc.Notes != nil {
		c.Notes = core.CleanString(*uc.Notes)
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateChild(ctx, c)
}

// SoftDelete marks the child deleted; attendance history survives.
func (svc *service) SoftDelete(ctx context.Context, origChild Child) error {
	c := origChild
	now := time.Now().UTC()
	c.UpdatedAt = now
	c.DeletedAt = null.TimeFrom(now)
	_, err := svc.repo.UpdateChild(ctx, c)
	return err
}

func (svc *service) LinkGuardian(ctx context.Context, childID, guardianID string, ngl NewGuardianLink) error {
	return svc.repo.LinkGuardian(ctx, GuardianLink{
		ChildID:    childID,
		GuardianID: guardianID,
		Relation:   ngl.Relation,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *service) UnlinkGuardian(ctx context.Context, childID, guardianID string) error {
	return svc.repo.UnlinkGuardian(ctx, childID, guardianID)
}

func (svc *service) GuardianIDs(ctx context.Context, childID string) ([]string, error) {
	return svc.repo.QueryGuardianIDs(ctx, childID)
}

func (svc *service) ChildrenOfGuardian(ctx context.Context, guardianID string) ([]Child, error) {
	return svc.repo.QueryChildrenOfGuardian(ctx, guardianID)
}

func (svc *service) GuardianRoomIDs(ctx context.Context, guardianID string) ([]string, error) {
	children, err := svc.repo.QueryChildrenOfGuardian(ctx, guardianID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(children))
	roomIDs := make([]string, 0, len(children))
	for _, c := range children {
		if _, ok := seen[c.RoomID]; ok {
			continue
		}
		seen[c.RoomID] = struct{}{}
		roomIDs = append(roomIDs, c.RoomID)
	}
	return roomIDs, nil
}
