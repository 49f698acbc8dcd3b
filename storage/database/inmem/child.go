package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/child"
)

type childRepository struct {
	rooms    *roomTable
	children *childTable
	links    *guardianLinkTable
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{rooms: db.room, children: db.child, links: db.guardianLink}
}

func (repo *childRepository) CreateRoom(ctx context.Context, r child.Room, exec ...core.DBExecutor) (child.Room, error) {
	repo.rooms.mutex.Lock()
	defer repo.rooms.mutex.Unlock()

	r.ID = uuid.New().String()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	repo.rooms.table[r.ID] = &r
	return r, nil
}

func (repo *childRepository) QueryRooms(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]child.Room, error) {
	repo.rooms.mutex.RLock()
	defer repo.rooms.mutex.RUnlock()

	var rooms []child.Room
	for _, r := range repo.rooms.table {
		if r.OrgID == orgID {
			rooms = append(rooms, *r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (repo *childRepository) GetRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (child.Room, error) {
	repo.rooms.mutex.RLock()
	defer repo.rooms.mutex.RUnlock()

	if r, ok := repo.rooms.table[id]; ok && r.OrgID == orgID {
		return *r, nil
	}
	return child.Room{}, child.ErrRoomNotFound
}

func (repo *childRepository) UpdateRoom(ctx context.Context, r child.Room, exec ...core.DBExecutor) (child.Room, error) {
	repo.rooms.mutex.Lock()
	defer repo.rooms.mutex.Unlock()

	origRoom, ok := repo.rooms.table[r.ID]
	if !ok {
		return child.Room{}, child.ErrRoomNotFound
	}
	origRoom.Name = r.Name
	origRoom.UpdatedAt = r.UpdatedAt
	return *origRoom, nil
}

func (repo *childRepository) DeleteRoom(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	repo.rooms.mutex.Lock()
	defer repo.rooms.mutex.Unlock()

	if r, ok := repo.rooms.table[id]; ok && r.OrgID == orgID {
		delete(repo.rooms.table, id)
	}
	return nil
}

func (repo *childRepository) CreateChild(ctx context.Context, c child.Child, exec ...core.DBExecutor) (child.Child, error) {
	repo.children.mutex.Lock()
	defer repo.children.mutex.Unlock()

	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	repo.children.table[c.ID] = &c
	return c, nil
}

func (repo *childRepository) QueryChildren(ctx context.Context, orgID string, filter *child.QueryFilter, exec ...core.DBExecutor) ([]child.Child, error) {
	repo.children.mutex.RLock()
	defer repo.children.mutex.RUnlock()

	var children []child.Child
	for _, c := range repo.children.table {
		if c.OrgID != orgID || c.Deleted() {
			continue
		}
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.RoomID != "" && c.RoomID != filter.RoomID {
				continue
			}
		}
		children = append(children, *c)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

func (repo *childRepository) GetChild(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (child.Child, error) {
	repo.children.mutex.RLock()
	defer repo.children.mutex.RUnlock()

	if c, ok := repo.children.table[id]; ok && c.OrgID == orgID {
		return *c, nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) UpdateChild(ctx context.Context, c child.Child, exec ...core.DBExecutor) (child.Child, error) {
	repo.children.mutex.Lock()
	defer repo.children.mutex.Unlock()

	origChild, ok := repo.children.table[c.ID]
	if !ok {
		return child.Child{}, child.ErrNotFound
	}
	origChild.RoomID = c.RoomID
	origChild.Name = c.Name
	origChild.Birthdate = c.Birthdate
	origChild.Allergies = c.Allergies
	origChild.Notes = c.Notes
	origChild.UpdatedAt = c.UpdatedAt
	origChild.DeletedAt = c.DeletedAt
	return *origChild, nil
}

func (repo *childRepository) LinkGuardian(ctx context.Context, link child.GuardianLink, exec ...core.DBExecutor) error {
	repo.links.mutex.Lock()
	defer repo.links.mutex.Unlock()

	for i, l := range repo.links.table {
		if l.ChildID == link.ChildID && l.GuardianID == link.GuardianID {
			repo.links.table[i].Relation = link.Relation
			return nil
		}
	}
	link.CreatedAt = time.Now().UTC()
	repo.links.table = append(repo.links.table, link)
	return nil
}

func (repo *childRepository) UnlinkGuardian(ctx context.Context, childID, guardianID string, exec ...core.DBExecutor) error {
	repo.links.mutex.Lock()
	defer repo.links.mutex.Unlock()

	for i, l := range repo.links.table {
		if l.ChildID == childID && l.GuardianID == guardianID {
			repo.links.table = append(repo.links.table[:i], repo.links.table[i+1:]...)
			return nil
		}
	}
	return nil
}

func (repo *childRepository) QueryGuardianIDs(ctx context.Context, childID string, exec ...core.DBExecutor) ([]string, error) {
	repo.links.mutex.RLock()
	defer repo.links.mutex.RUnlock()

	var ids []string
	for _, l := range repo.links.table {
		if l.ChildID == childID {
			ids = append(ids, l.GuardianID)
		}
	}
	return ids, nil
}

func (repo *childRepository) QueryChildrenOfGuardian(ctx context.Context, guardianID string, exec ...core.DBExecutor) ([]child.Child, error) {
	repo.links.mutex.RLock()
	childIDs := make(map[string]struct{})
	for _, l := range repo.links.table {
		if l.GuardianID == guardianID {
			childIDs[l.ChildID] = struct{}{}
		}
	}
	repo.links.mutex.RUnlock()

	repo.children.mutex.RLock()
	defer repo.children.mutex.RUnlock()

	var children []child.Child
	for id := range childIDs {
		if c, ok := repo.children.table[id]; ok && !c.Deleted() {
			children = append(children, *c)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}
