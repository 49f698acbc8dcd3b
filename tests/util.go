package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
)

func CreateOrg(t *testing.T, repo org.Repository, name, slug string) org.Org {
	t.Helper()
	now := time.Now().UTC()
	o, err := repo.CreateOrg(context.Background(), org.Org{
		Name:      name,
		Slug:      slug,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOrg() failed: %v", err)
	}
	return o
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	orgID, name, email string,
	roles []string,
	isActive bool,
	roomIDs ...string,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		OrgID:     orgID,
		Name:      name,
		Email:     email,
		IsActive:  &isActive,
		Roles:     roles,
		RoomIDs:   roomIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateRoom(t *testing.T, repo child.Repository, orgID, name string) child.Room {
	t.Helper()
	now := time.Now().UTC()
	r, err := repo.CreateRoom(context.Background(), child.Room{
		OrgID:     orgID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	return r
}

func CreateChild(t *testing.T, repo child.Repository, orgID, roomID, name string) child.Child {
	t.Helper()
	now := time.Now().UTC()
	c, err := repo.CreateChild(context.Background(), child.Child{
		OrgID:     orgID,
		RoomID:    roomID,
		Name:      name,
		Birthdate: now.AddDate(-3, 0, 0),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateChild() failed: %v", err)
	}
	return c
}

func LinkGuardian(t *testing.T, repo child.Repository, childID, guardianID, relation string) {
	t.Helper()
	err := repo.LinkGuardian(context.Background(), child.GuardianLink{
		ChildID:    childID,
		GuardianID: guardianID,
		Relation:   relation,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("LinkGuardian() failed: %v", err)
	}
}
