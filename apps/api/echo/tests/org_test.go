package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/user"
	"github.com/zawadi/chekechea/tests"
)

func Test_orgApi(t *testing.T) {
	app := setup(t)

	o := testutil.CreateOrg(t, orgRepo, "Sunshine Daycare", "sunshine")
	principal := testutil.CreateUser(t, usrRepo, o.ID, "Pat Principal", "pat@sunshine.test", []string{user.RoleStaffPrincipal}, true)
	guardian := testutil.CreateUser(t, usrRepo, o.ID, "Gwen Guardian", "gwen@sunshine.test", []string{user.RoleGuardian}, true)

	principalToken := getToken(t, principal)
	guardianToken := getToken(t, guardian)

	tt := []httpTest{
		{
			name:     "retrieve (no token)",
			method:   http.MethodGet,
			path:     "/v1/org",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "retrieve (guardian)",
			method:   http.MethodGet,
			path:     "/v1/org",
			token:    guardianToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, o),
		},
		{
			name:     "update (guardian)",
			method:   http.MethodPut,
			path:     "/v1/org",
			body:     marchallObj(t, org.UpdateOrg{Name: "Renamed"}),
			token:    guardianToken,
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

	t.Run("update (principal)", func(t *testing.T) {
		body := marchallObj(t, org.UpdateOrg{Name: "Sunshine & Rainbows", Timezone: "Africa/Nairobi"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/org", principalToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated org.Org
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Sunshine & Rainbows", updated.Name)
		assert.Equal(t, "Africa/Nairobi", updated.Timezone)
		assert.Equal(t, o.Slug, updated.Slug) // slug is immutable
	})
}
