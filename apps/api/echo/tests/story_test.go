package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
	"github.com/zawadi/chekechea/tests"
)

func Test_storyApi(t *testing.T) {
	app := setup(t)

	o := testutil.CreateOrg(t, orgRepo, "Sunshine Daycare", "sunshine")
	principal := testutil.CreateUser(t, usrRepo, o.ID, "Pat Principal", "pat@sunshine.test", []string{user.RoleStaffPrincipal}, true)
	guardian := testutil.CreateUser(t, usrRepo, o.ID, "Gwen Guardian", "gwen@sunshine.test", []string{user.RoleGuardian}, true)

	room := testutil.CreateRoom(t, chdRepo, o.ID, "Butterflies")
	room2 := testutil.CreateRoom(t, chdRepo, o.ID, "Caterpillars")
	teacher := testutil.CreateUser(t, usrRepo, o.ID, "Tina Teacher", "tina@sunshine.test", []string{user.RoleStaffTeacher}, true, room.ID)
	teacher2 := testutil.CreateUser(t, usrRepo, o.ID, "Tom Teacher", "tom@sunshine.test", []string{user.RoleStaffTeacher}, true, room2.ID)

	kid := testutil.CreateChild(t, chdRepo, o.ID, room.ID, "Kim Kid")
	testutil.LinkGuardian(t, chdRepo, kid.ID, guardian.ID, "mother")

	principalToken := getToken(t, principal)
	teacherToken := getToken(t, teacher)
	teacher2Token := getToken(t, teacher2)
	guardianToken := getToken(t, guardian)

	postStory := func(t *testing.T, token string, data story.NewStory) story.Story {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/stories", token, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var s story.Story
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		return s
	}

	orgStory := postStory(t, principalToken, story.NewStory{Title: "Field trip", Body: "We went to the park.", Audience: string(core.AudienceOrg)})
	staffStory := postStory(t, principalToken, story.NewStory{Title: "Staff meeting", Body: "Notes from Monday.", Audience: string(core.AudienceStaff)})
	roomStory := postStory(t, teacherToken, story.NewStory{Title: "Painting day", Body: "The butterflies painted.", Audience: string(core.AudienceRooms), RoomIDs: []string{room.ID}})
	room2Story := postStory(t, teacher2Token, story.NewStory{Title: "Block towers", Body: "The caterpillars built.", Audience: string(core.AudienceRooms), RoomIDs: []string{room2.ID}})

	tt := []httpTest{
		{
			name:     "create (guardian)",
			method:   http.MethodPost,
			path:     "/v1/stories",
			body:     marchallObj(t, story.NewStory{Title: "Nope", Body: "Nope", Audience: string(core.AudienceOrg)}),
			token:    guardianToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "create rooms audience without rooms",
			method:   http.MethodPost,
			path:     "/v1/stories",
			body:     marchallObj(t, story.NewStory{Title: "Oops", Body: "Oops", Audience: string(core.AudienceRooms)}),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"room_ids": "at least one room is required for a rooms audience"}),
		},
		{
			name:     "retrieve staff story (guardian)",
			method:   http.MethodGet,
			path:     "/v1/stories/" + staffStory.ID,
			token:    guardianToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "retrieve other room story (guardian)",
			method:   http.MethodGet,
			path:     "/v1/stories/" + room2Story.ID,
			token:    guardianToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "retrieve room story (linked guardian)",
			method:   http.MethodGet,
			path:     "/v1/stories/" + roomStory.ID,
			token:    guardianToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, roomStory),
		},
		{
			name:     "update someone else's story (teacher)",
			method:   http.MethodPut,
			path:     "/v1/stories/" + roomStory.ID,
			body:     marchallObj(t, story.UpdateStory{Title: "Hijacked"}),
			token:    teacher2Token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newAuthRequest(tc.method, tc.path, tc.token, tc.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tc, rec)
		})
	}

	queryIDs := func(t *testing.T, token string) []string {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/stories", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stories []story.Story
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stories))
		ids := make([]string, 0, len(stories))
		for _, s := range stories {
			ids = append(ids, s.ID)
		}
		return ids
	}

	t.Run("query visibility", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]string{orgStory.ID, staffStory.ID, roomStory.ID, room2Story.ID},
			queryIDs(t, principalToken))
		assert.ElementsMatch(t,
			[]string{orgStory.ID, staffStory.ID, roomStory.ID},
			queryIDs(t, teacherToken))
		assert.ElementsMatch(t,
			[]string{orgStory.ID, roomStory.ID},
			queryIDs(t, guardianToken))
	})

	t.Run("author updates own story", func(t *testing.T) {
		body := marchallObj(t, story.UpdateStory{Title: "Painting day (updated)"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/stories/"+roomStory.ID, teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated story.Story
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Painting day (updated)", updated.Title)
		assert.Equal(t, roomStory.Body, updated.Body) // untouched
	})

	t.Run("principal deletes any story", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/stories/"+room2Story.ID, principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/stories/"+room2Story.ID, principalToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
