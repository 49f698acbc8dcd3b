package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/zawadi/chekechea/apps/api/echo"
	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/announce"
	"github.com/zawadi/chekechea/core/attendance"
	"github.com/zawadi/chekechea/core/child"
	"github.com/zawadi/chekechea/core/menu"
	"github.com/zawadi/chekechea/core/message"
	"github.com/zawadi/chekechea/core/org"
	"github.com/zawadi/chekechea/core/story"
	"github.com/zawadi/chekechea/core/user"
	emailsvc "github.com/zawadi/chekechea/services/email"
	logsvc "github.com/zawadi/chekechea/services/logger"
	inmemdb "github.com/zawadi/chekechea/storage/database/inmem"
)

var (
	orgRepo org.Repository
	usrRepo user.Repository
	chdRepo child.Repository
	attRepo attendance.Repository
	styRepo story.Repository
	annRepo announce.Repository
	msgRepo message.Repository
	mnuRepo menu.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T) Server {
	// error payloads take the production shape
	core.Conf.Debug = false

	// set up DB & repos
	db := inmemdb.Open()
	orgRepo = inmemdb.NewOrgRepository(db)
	usrRepo = inmemdb.NewUserRepository(db)
	chdRepo = inmemdb.NewChildRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	styRepo = inmemdb.NewStoryRepository(db)
	annRepo = inmemdb.NewAnnouncementRepository(db)
	msgRepo = inmemdb.NewMessageRepository(db)
	mnuRepo = inmemdb.NewMenuRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)

	usrSvc := user.NewService(nil, usrRepo, mailSvc, logger)
	chdSvc := child.NewService(nil, chdRepo)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			SignalShutdown: func() {},

			OrgSvc:        org.NewService(nil, orgRepo),
			UserSvc:       usrSvc,
			ChildSvc:      chdSvc,
			AttendanceSvc: attendance.NewService(nil, attRepo),
			StorySvc:      story.NewService(nil, styRepo, nil),
			AnnounceSvc:   announce.NewService(nil, annRepo, nil),
			MessageSvc:    message.NewService(nil, msgRepo, nil),
			MenuSvc:       menu.NewService(nil, mnuRepo),
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
