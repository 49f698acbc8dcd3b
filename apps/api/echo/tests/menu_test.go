package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zawadi/chekechea/core/menu"
	"github.com/zawadi/chekechea/core/user"
	"github.com/zawadi/chekechea/tests"
)

func Test_menuApi(t *testing.T) {
	app := setup(t)

	o := testutil.CreateOrg(t, orgRepo, "Sunshine Daycare", "sunshine")
	teacher := testutil.CreateUser(t, usrRepo, o.ID, "Tina Teacher", "tina@sunshine.test", []string{user.RoleStaffTeacher}, true)
	guardian := testutil.CreateUser(t, usrRepo, o.ID, "Gwen Guardian", "gwen@sunshine.test", []string{user.RoleGuardian}, true)

	teacherToken := getToken(t, teacher)
	guardianToken := getToken(t, guardian)

	today := time.Now().UTC()

	tt := []httpTest{
		{
			name:     "upsert (guardian)",
			method:   http.MethodPut,
			path:     "/v1/menus",
			body:     marchallObj(t, menu.UpsertMenu{Date: today, Lunch: "Pasta"}),
			token:    guardianToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "upsert without meals",
			method:   http.MethodPut,
			path:     "/v1/menus",
			body:     marchallObj(t, menu.UpsertMenu{Date: today}),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"lunch": "at least one meal is required"}),
		},
		{
			name:     "query bad date",
			method:   http.MethodGet,
			path:     "/v1/menus?date=tomorrow",
			token:    guardianToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "must be formatted as YYYY-MM-DD"}),
		},
		{
			name:     "today before any menu exists",
			method:   http.MethodGet,
			path:     "/v1/menus/today",
			token:    guardianToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newAuthRequest(tc.method, tc.path, tc.token, tc.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tc, rec)
		})
	}

	t.Run("upsert replaces the day's menu", func(t *testing.T) {
		body := marchallObj(t, menu.UpsertMenu{Date: today, Breakfast: "Porridge", Lunch: "Pasta"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/menus", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var created menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "Pasta", created.Lunch)

		body = marchallObj(t, menu.UpsertMenu{Date: today, Lunch: "Rice and beans"})
		req, rec = newAuthRequest(http.MethodPut, "/v1/menus", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var replaced menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replaced))
		assert.Equal(t, created.ID, replaced.ID)
		assert.Equal(t, "Rice and beans", replaced.Lunch)
	})

	t.Run("guardians read today's menu", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/menus/today", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))

		var m menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Equal(t, "Rice and beans", m.Lunch)
	})

	t.Run("query a range", func(t *testing.T) {
		tomorrow := today.AddDate(0, 0, 1)
		body := marchallObj(t, menu.UpsertMenu{Date: tomorrow, Lunch: "Stew"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/menus", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		from := today.Format("2006-01-02")
		to := tomorrow.Format("2006-01-02")
		req, rec = newAuthRequest(http.MethodGet, "/v1/menus?from="+from+"&to="+to, guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var menus []menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menus))
		require.Len(t, menus, 2)
		assert.True(t, menus[0].Date.Before(menus[1].Date))
	})

	t.Run("query one date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/menus?date="+today.Format("2006-01-02"), guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var m menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Equal(t, menu.Day(today), m.Date)
	})
}
