package core

import "testing"

func Test_Visibility_VisibleTo(t *testing.T) {
	const orgID = "org-1"

	principal := Viewer{OrgID: orgID, IsPrincipal: true, IsStaff: true}
	staff := Viewer{OrgID: orgID, IsStaff: true}
	teacher := Viewer{OrgID: orgID, IsStaff: true, IsTeacher: true, RoomIDs: []string{"room-1"}}
	otherTeacher := Viewer{OrgID: orgID, IsStaff: true, IsTeacher: true, RoomIDs: []string{"room-9"}}
	guardian := Viewer{OrgID: orgID, IsGuardian: true, RoomIDs: []string{"room-1"}}
	otherGuardian := Viewer{OrgID: orgID, IsGuardian: true, RoomIDs: []string{"room-9"}}
	outsider := Viewer{OrgID: "org-2", IsPrincipal: true, IsStaff: true}

	orgWide := Visibility{Audience: AudienceOrg}
	staffOnly := Visibility{Audience: AudienceStaff}
	room1 := Visibility{Audience: AudienceRooms, RoomIDs: []string{"room-1"}}

	tests := []struct {
		name   string
		vis    Visibility
		viewer Viewer
		want   bool
	}{
		{name: "org: principal", vis: orgWide, viewer: principal, want: true},
		{name: "org: staff", vis: orgWide, viewer: staff, want: true},
		{name: "org: teacher", vis: orgWide, viewer: teacher, want: true},
		{name: "org: guardian", vis: orgWide, viewer: guardian, want: true},
		{name: "org: other org", vis: orgWide, viewer: outsider, want: false},

		{name: "staff: principal", vis: staffOnly, viewer: principal, want: true},
		{name: "staff: staff", vis: staffOnly, viewer: staff, want: true},
		{name: "staff: teacher", vis: staffOnly, viewer: teacher, want: true},
		{name: "staff: guardian", vis: staffOnly, viewer: guardian, want: false},
		{name: "staff: other org", vis: staffOnly, viewer: outsider, want: false},

		{name: "rooms: principal", vis: room1, viewer: principal, want: true},
		{name: "rooms: base staff", vis: room1, viewer: staff, want: true},
		{name: "rooms: teacher of room", vis: room1, viewer: teacher, want: true},
		{name: "rooms: teacher of another room", vis: room1, viewer: otherTeacher, want: false},
		{name: "rooms: guardian with child in room", vis: room1, viewer: guardian, want: true},
		{name: "rooms: guardian without child in room", vis: room1, viewer: otherGuardian, want: false},
		{name: "rooms: other org", vis: room1, viewer: outsider, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vis.VisibleTo(tt.viewer, orgID); got != tt.want {
				t.Errorf("VisibleTo() = %v; want %v", got, tt.want)
			}
		})
	}
}

func Test_Audience_Valid(t *testing.T) {
	for _, a := range Audiences {
		if !a.Valid() {
			t.Errorf("Valid() = false for %q", a)
		}
	}
	if Audience("everyone").Valid() {
		t.Error("Valid() = true for unknown audience")
	}
}
