package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/user"
	"github.com/zawadi/chekechea/tests"
)

func Test_messageApi(t *testing.T) {
	app := setup(t)

	o := testutil.CreateOrg(t, orgRepo, "Sunshine Daycare", "sunshine")
	teacher := testutil.CreateUser(t, usrRepo, o.ID, "Tina Teacher", "tina@sunshine.test", []string{user.RoleStaffTeacher}, true)
	guardian := testutil.CreateUser(t, usrRepo, o.ID, "Gwen Guardian", "gwen@sunshine.test", []string{user.RoleGuardian}, true)
	guardian2 := testutil.CreateUser(t, usrRepo, o.ID, "Greg Guardian", "greg@sunshine.test", []string{user.RoleGuardian}, true)

	teacherToken := getToken(t, teacher)
	guardianToken := getToken(t, guardian)
	guardian2Token := getToken(t, guardian2)

	t.Run("guardians may only message staff", func(t *testing.T) {
		data := message.NewThread{Subject: "Playdate", ParticipantIDs: []string{guardian2.ID}, Body: "Hi!"}
		req, rec := newAuthRequest(http.MethodPost, "/v1/threads", guardianToken, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	var thread message.Thread
	t.Run("start a thread", func(t *testing.T) {
		data := message.NewThread{Subject: "Nap schedule", ParticipantIDs: []string{teacher.ID}, Body: "How did Kim nap today?"}
		req, rec := newAuthRequest(http.MethodPost, "/v1/threads", guardianToken, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
		assert.Equal(t, guardian.ID, thread.CreatedBy)
		assert.Equal(t, "Nap schedule", thread.Subject)
	})

	t.Run("participants see the thread, others do not", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID, teacherToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID, guardian2Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/threads", guardian2Token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("post, unread counts, mark read", func(t *testing.T) {
		data := message.NewMessage{Body: "She napped two hours."}
		req, rec := newAuthRequest(http.MethodPost, "/v1/threads/"+thread.ID+"/messages", teacherToken, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		// the guardian has one unread reply
		req, rec = newAuthRequest(http.MethodGet, "/v1/threads", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var threads []message.Thread
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &threads))
		require.Len(t, threads, 1)
		assert.Equal(t, 1, threads[0].UnreadCount)

		req, rec = newAuthRequest(http.MethodPost, "/v1/threads/"+thread.ID+"/read", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/threads", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &threads))
		require.Len(t, threads, 1)
		assert.Equal(t, 0, threads[0].UnreadCount)
	})

	t.Run("query messages", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID+"/messages", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var msgs []message.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
		require.Len(t, msgs, 2)

		// non-participants get a 404, not an empty list
		req, rec = newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID+"/messages", guardian2Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("senders delete their own messages", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID+"/messages", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []message.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))

		var teacherMsg message.Message
		for _, m := range msgs {
			if m.SenderID == teacher.ID {
				teacherMsg = m
			}
		}
		require.NotEmpty(t, teacherMsg.ID)

		// not the sender
		req, rec = newAuthRequest(http.MethodDelete, "/v1/threads/"+thread.ID+"/messages/"+teacherMsg.ID, guardianToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// the sender
		req, rec = newAuthRequest(http.MethodDelete, "/v1/threads/"+thread.ID+"/messages/"+teacherMsg.ID, teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/threads/"+thread.ID+"/messages", guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
		assert.Len(t, msgs, 1)
	})

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/threads")
		app.ServeHTTP(rec, req)
		tc := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tc, rec)
	})
}
