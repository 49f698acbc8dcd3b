// Package inmemdb is a map-backed implementation of the domain repositories,
// used by service and handler tests.
package inmemdb

import (
	"sync"

	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/attendance"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/menu"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
)

type (
	DB struct {
		org          *orgTable
		user         *userTable
		room         *roomTable
		child        *childTable
		guardianLink *guardianLinkTable
		attendance   *attendanceTable
		story        *storyTable
		announcement *announcementTable
		thread       *threadTable
		message      *messageTable
		menu         *menuTable
	}

	orgTable struct {
		table map[string]*org.Org
		mutex sync.RWMutex
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	roomTable struct {
		table map[string]*child.Room
		mutex sync.RWMutex
	}

	childTable struct {
		table map[string]*child.Child
		mutex sync.RWMutex
	}

	guardianLinkTable struct {
		table []child.GuardianLink
		mutex sync.RWMutex
	}

	attendanceTable struct {
		table map[string]*attendance.Record
		mutex sync.RWMutex
	}

	storyTable struct {
		table map[string]*story.Story
		mutex sync.RWMutex
	}

	announcementTable struct {
		table map[string]*announce.Announcement
		mutex sync.RWMutex
	}

	threadTable struct {
		table        map[string]*message.Thread
		participants map[string][]*message.Participant // keyed by thread ID
		mutex        sync.RWMutex
	}

	messageTable struct {
		table map[string]*message.Message
		mutex sync.RWMutex
	}

	menuTable struct {
		table map[string]*menu.Menu
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		org:          &orgTable{table: make(map[string]*org.Org)},
		user:         &userTable{table: make(map[string]*user.User)},
		room:         &roomTable{table: make(map[string]*child.Room)},
		child:        &childTable{table: make(map[string]*child.Child)},
		guardianLink: &guardianLinkTable{},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Record)},
		story:        &storyTable{table: make(map[string]*story.Story)},
		announcement: &announcementTable{table: make(map[string]*announce.Announcement)},
		thread: &threadTable{
			table:        make(map[string]*message.Thread),
			participants: make(map[string][]*message.Participant),
		},
		message: &messageTable{table: make(map[string]*message.Message)},
		menu:    &menuTable{table: make(map[string]*menu.Menu)},
	}
}
