package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/user"
	"github.com/zawadi/chekechea/tests"
)

func Test_announcementApi(t *testing.T) {
	app := setup(t)

	o := testutil.CreateOrg(t, orgRepo, "Sunshine Daycare", "sunshine")
	principal := testutil.CreateUser(t, usrRepo, o.ID, "Pat Principal", "pat@sunshine.test", []string{user.RoleStaffPrincipal}, true)
	teacher := testutil.CreateUser(t, usrRepo, o.ID, "Tina Teacher", "tina@sunshine.test", []string{user.RoleStaffTeacher}, true)
	guardian := testutil.CreateUser(t, usrRepo, o.ID, "Gwen Guardian", "gwen@sunshine.test", []string{user.RoleGuardian}, true)

	principalToken := getToken(t, principal)
	teacherToken := getToken(t, teacher)
	guardianToken := getToken(t, guardian)

	create := func(t *testing.T, data announce.NewAnnouncement) announce.Announcement {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", principalToken, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var a announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		return a
	}

	live := create(t, announce.NewAnnouncement{Title: "Closure", Body: "Closed Friday.", Audience: string(core.AudienceOrg)})
	staffOnly := create(t, announce.NewAnnouncement{Title: "Rota", Body: "New shifts.", Audience: string(core.AudienceStaff)})
	scheduled := create(t, announce.NewAnnouncement{
		Title:     "Spring fair",
		Body:      "Save the date.",
		Audience:  string(core.AudienceOrg),
		PublishAt: time.Now().AddDate(0, 0, 7).UTC(),
	})

	tt := []httpTest{
		{
			name:     "create (guardian)",
			method:   http.MethodPost,
			path:     "/v1/announcements",
			body:     marchallObj(t, announce.NewAnnouncement{Title: "Nope", Body: "Nope", Audience: string(core.AudienceOrg)}),
			token:    guardianToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "retrieve live (guardian)",
			method:   http.MethodGet,
			path:     "/v1/announcements/" + live.ID,
			token:    guardianToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, live),
		},
		{
			name:     "retrieve staff-only (guardian)",
			method:   http.MethodGet,
			path:     "/v1/announcements/" + staffOnly.ID,
			token:    guardianToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "retrieve scheduled (guardian)",
			method:   http.MethodGet,
			path:     "/v1/announcements/" + scheduled.ID,
			token:    guardianToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "retrieve scheduled (staff)",
			method:   http.MethodGet,
			path:     "/v1/announcements/" + scheduled.ID,
			token:    teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, scheduled),
		},
		{
			name:     "pin (teacher)",
			method:   http.MethodPost,
			path:     "/v1/announcements/" + live.ID + "/pin",
			token:    teacherToken,
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

	t.Run("teacher creates, only author or principal mutates", func(t *testing.T) {
		data := announce.NewAnnouncement{Title: "Picture day", Body: "Bring smiles.", Audience: string(core.AudienceOrg)}
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", teacherToken, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var a announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		assert.Equal(t, teacher.ID, a.AuthorID)

		// another teacher's announcement is off limits
		body := marchallObj(t, announce.UpdateAnnouncement{Title: "Hijacked"})
		req, rec = newAuthRequest(http.MethodPut, "/v1/announcements/"+live.ID, teacherToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		// the author cleans up their own
		req, rec = newAuthRequest(http.MethodDelete, "/v1/announcements/"+a.ID, teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("guardian feed excludes staff-only and scheduled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var anns []announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anns))
		require.Len(t, anns, 1)
		assert.Equal(t, live.ID, anns[0].ID)
	})

	t.Run("publish scheduled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements/"+scheduled.ID+"/publish", principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var published announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
		assert.False(t, published.PublishAt.After(time.Now().UTC()))

		// double publish conflicts
		req, rec = newAuthRequest(http.MethodPost, "/v1/announcements/"+scheduled.ID+"/publish", principalToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		// now in the guardian feed
		req, rec = newAuthRequest(http.MethodGet, "/v1/announcements/"+scheduled.ID, guardianToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("pin and unpin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements/"+live.ID+"/pin", principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var pinned announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pinned))
		assert.True(t, pinned.Pinned)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/announcements/"+live.ID+"/pin", principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var unpinned announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unpinned))
		assert.False(t, unpinned.Pinned)
	})

	t.Run("update and destroy", func(t *testing.T) {
		body := marchallObj(t, announce.UpdateAnnouncement{Body: "Closed Friday and Monday."})
		req, rec := newAuthRequest(http.MethodPut, "/v1/announcements/"+staffOnly.ID, principalToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated announce.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Closed Friday and Monday.", updated.Body)
		assert.Equal(t, staffOnly.Title, updated.Title) // untouched

		req, rec = newAuthRequest(http.MethodDelete, "/v1/announcements/"+staffOnly.ID, principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/announcements/"+staffOnly.ID, principalToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
