package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	. "github.com/LestlinRobins/skilldom-BitnBuild/apps/api/echo"
	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
	emailsvc "github.com/LestlinRobins/skilldom-BitnBuild/services/email"
	filestoresvc "github.com/LestlinRobins/skilldom-BitnBuild/services/filestore"
	verifysvc "github.com/LestlinRobins/skilldom-BitnBuild/services/verify"
	inmemdb "github.com/LestlinRobins/skilldom-BitnBuild/storage/database/inmem"
	testutil "github.com/LestlinRobins/skilldom-BitnBuild/tests"
)

var (
	conf     *core.Config
	acctRepo account.Repository
	crsRepo  course.Repository
	prjRepo  project.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = testutil.NewConfig()
	conf.FileStore = core.FileStoreConfig{Root: t.TempDir(), BaseURL: "http://localhost:8000/files"}
	core.ParseEmailTemplates(conf, testutil.Logger{})
	emailsvc.ClearSentMessages()

	// set up repos
	acctRepo = inmemdb.NewAccountRepository()
	crsRepo = inmemdb.NewCourseRepository()
	prjRepo = inmemdb.NewProjectRepository()

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	acctSvc := account.NewServiceMock(acctRepo, mailSvc, verifysvc.NewSimulatedVerifier(testutil.Logger{}), conf)
	crsSvc := course.NewServiceMock(crsRepo, acctRepo, mailSvc, conf)
	prjSvc := project.NewServiceMock(prjRepo, acctRepo, mailSvc, conf)

	// set up server
	return NewServer(
		&ServerDeps{
			Conf:           conf,
			Logger:         testutil.Logger{},
			AccountSvc:     acctSvc,
			CourseSvc:      crsSvc,
			ProjectSvc:     prjSvc,
			FileSvc:        filestoresvc.NewLocalService(conf),
			DisableReqLogs: true,
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

func getToken(t *testing.T, acct account.Account) string {
	claims := GetAccountClaims(acct)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// getProviderToken mints a token the way the external identity provider would.
func getProviderToken(t *testing.T, id, name, email string, skills ...string) string {
	claims := jwt.MapClaims{
		"sub":   id,
		"name":  name,
		"email": email,
	}
	if len(skills) > 0 {
		claims["skills"] = skills
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.Auth.ProviderSecret))
	if err != nil {
		t.Fatalf("getProviderToken() failed: %v", err)
	}
	return ss
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
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
	return assert.ElementsMatch(t, j1, j2), nil
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

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body = %s", err, rec.Body.String())
	}
}
