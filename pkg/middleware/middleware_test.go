package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"watersync/database"
	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/auth/repositoryImp"
	"watersync/pkg/auth/session"
)

var secret = []byte("test-secret")

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "mw.db"))
	require.NoError(t, err)
	return db
}

// run passes a request through mw and reports the user the handler saw.
func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*entities.User, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var seen *entities.User
	err := mw(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, rec, err
}

func TestSessionBearer(t *testing.T) {
	db := newDB(t)
	u := &entities.User{Email: "a@example.org", Approved: true}
	require.NoError(t, db.Create(u).Error)
	tok, err := session.Issue(secret, u.ID, u.Email, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	seen, _, err := run(t, Session(secret, repositoryImp.New(db)), req)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)
}

func TestSessionBadCookieIsAnonymous(t *testing.T) {
	db := newDB(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "garbage"})
	seen, rec, err := run(t, Session(secret, repositoryImp.New(db)), req)
	require.NoError(t, err)
	assert.Nil(t, seen)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "Max-Age=0")
}

func TestDevLogin(t *testing.T) {
	db := newDB(t)
	seen, rec, err := run(t, DevLogin(secret, repositoryImp.New(db)), httptest.NewRequest(http.MethodGet, "/?uid=field@localhost", nil))
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "field@localhost", seen.Email)
	assert.True(t, seen.Approved)
	assert.True(t, seen.Staff)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), session.CookieName+"=")

	var n int64
	db.Model(&entities.User{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestRequireStaff(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/pending", nil), httptest.NewRecorder())
	SetUser(c, &entities.User{ID: 1, Approved: true})
	err := RequireStaff()(func(echo.Context) error { return nil })(c)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestProjectMember(t *testing.T) {
	db := newDB(t)
	member := &entities.User{Email: "m@example.org", Approved: true}
	other := &entities.User{Email: "o@example.org", Approved: true}
	require.NoError(t, db.Create(member).Error)
	require.NoError(t, db.Create(other).Error)
	p := &entities.Project{Name: "Delta"}
	require.NoError(t, db.Omit("Members").Create(p).Error)
	require.NoError(t, db.Table("project_members").Create(map[string]any{"project_id": p.ID, "user_id": member.ID}).Error)

	check := func(u *entities.User, pid string) error {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/projects/"+pid+"/locations/", nil), httptest.NewRecorder())
		c.SetPath("/projects/:project_pk/locations/")
		c.SetParamNames("project_pk")
		c.SetParamValues(pid)
		SetUser(c, u)
		return ProjectMember(db)(func(echo.Context) error { return nil })(c)
	}
	pid := strconv.FormatUint(uint64(p.ID), 10)

	assert.NoError(t, check(member, pid))
	assert.True(t, apperr.Is(check(other, pid), apperr.KindAuthorization))
	assert.True(t, apperr.Is(check(member, "999"), apperr.KindNotFound))
	assert.True(t, apperr.Is(check(member, "abc"), apperr.KindNotFound))
}
