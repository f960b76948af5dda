package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"watersync/config"
	"watersync/database"
	"watersync/entities"
	"watersync/pkg/auth/session"
	"watersync/pkg/htmx"
)

type testApp struct {
	t   *testing.T
	e   *echo.Echo
	db  *gorm.DB
	cfg config.AppConfig
}

func newApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "watersync.db"))
	require.NoError(t, err)
	cfg := config.AppConfig{SessionSecret: "test-secret", SessionTTL: time.Hour, PageSize: 25, DBDriver: "sqlite"}
	e, err := Setup(echo.New(), db, cfg)
	require.NoError(t, err)
	return &testApp{t: t, e: e, db: db, cfg: cfg}
}

func (a *testApp) user(email string, approved bool) *entities.User {
	a.t.Helper()
	u := &entities.User{Email: email, Approved: approved}
	require.NoError(a.t, a.db.Create(u).Error)
	return u
}

// do sends a form post (or a bare request when form is nil) as u. Requests
// ask for JSON unless headers say otherwise.
func (a *testApp) do(method, path string, u *entities.User, form url.Values, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if u != nil {
		tok, err := session.Issue([]byte(a.cfg.SessionSecret), u.ID, u.Email, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doJSON(method, path string, u *entities.User, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	tok, err := session.Issue([]byte(a.cfg.SessionSecret), u.ID, u.Email, time.Hour)
	require.NoError(a.t, err)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type listBody[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

func decodeList[T any](t *testing.T, rec *httptest.ResponseRecorder) listBody[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out listBody[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (a *testApp) project(u *entities.User, name string) uint {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/projects/", u, url.Values{"name": {name}, "is_active": {"on"}})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p entities.Project
	require.NoError(a.t, a.db.Where("name = ?", name).First(&p).Error)
	return p.ID
}

const wellJSON = `{"name":%q,"type":"well","latitude":52.1,"longitude":5.2,
	"depth":12,"casing_top":10,"screen_top":2,"screen_bottom":8,"diameter":50,
	"drill_type":"rotary_drilling","material":"pvc"}`

func (a *testApp) well(u *entities.User, pid uint, name string) uint {
	a.t.Helper()
	rec := a.doJSON(http.MethodPost, "/projects/"+itoa(pid)+"/locations/", u, fmt.Sprintf(wellJSON, name))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var l entities.Location
	require.NoError(a.t, a.db.Where("project_id = ? AND name = ?", pid, name).First(&l).Error)
	return l.ID
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestKindsRegistry(t *testing.T) {
	kinds, err := Kinds()
	require.NoError(t, err)
	path, err := kinds.Path()
	require.NoError(t, err)
	assert.Equal(t, "", path)
	kind, ok := kinds.KindOfPlural("gwlmeasurements")
	assert.True(t, ok)
	assert.Equal(t, "gwl_measurement", kind)
}

func TestAnonymousAccess(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodGet, "/projects/", nil, nil, echo.HeaderAccept, echo.MIMETextHTML)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/login"))

	rec = a.do(http.MethodGet, "/projects/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/projects/", nil, nil, htmx.HeaderRequest, "true")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(htmx.HeaderRedirect))

	rec = a.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":{"ok":true}`)
}

func TestUnapprovedUser(t *testing.T) {
	a := newApp(t)
	u := a.user("new@example.org", false)

	rec := a.do(http.MethodGet, "/projects/", u, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/projects/", u, nil, echo.HeaderAccept, echo.MIMETextHTML)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/approval-pending", rec.Header().Get(echo.HeaderLocation))
}

func TestSignupLoginApprove(t *testing.T) {
	a := newApp(t)
	staff := &entities.User{Email: "staff@example.org", Approved: true, Staff: true}
	require.NoError(t, a.db.Create(staff).Error)

	rec := a.do(http.MethodPost, "/signup", nil, url.Values{
		"email": {"field@example.org"}, "name": {"Field Worker"},
		"password": {"s3cret-pass"}, "password2": {"s3cret-pass"},
	}, echo.HeaderAccept, echo.MIMETextHTML)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	var u entities.User
	require.NoError(t, a.db.Where("email = ?", "field@example.org").First(&u).Error)
	assert.False(t, u.Approved)

	rec = a.do(http.MethodGet, "/users/pending", &u, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/users/"+itoa(u.ID)+"/approve", staff, url.Values{})
	require.Less(t, rec.Code, 400, rec.Body.String())
	require.NoError(t, a.db.First(&u, u.ID).Error)
	assert.True(t, u.Approved)

	rec = a.do(http.MethodPost, "/login", nil, url.Values{"email": {"field@example.org"}, "password": {"wrong"}}, echo.HeaderAccept, echo.MIMETextHTML)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/login", nil, url.Values{"email": {"field@example.org"}, "password": {"s3cret-pass"}}, echo.HeaderAccept, echo.MIMETextHTML)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), session.CookieName+"=")
}

func TestProjectMembership(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	bob := a.user("bob@example.org", true)
	pid := a.project(alice, "Delta")

	assert.Equal(t, int64(1), decodeList[entities.Project](t, a.do(http.MethodGet, "/projects/", alice, nil)).Count)
	assert.Equal(t, int64(0), decodeList[entities.Project](t, a.do(http.MethodGet, "/projects/", bob, nil)).Count)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/projects/"+itoa(pid), bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/", bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/projects/999/locations/", bob, nil).Code)

	rec := a.do(http.MethodPost, "/projects/"+itoa(pid)+"/members", alice, url.Values{"user_id": {itoa(bob.ID)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/", bob, nil).Code)

	rec = a.do(http.MethodDelete, "/projects/"+itoa(pid)+"/members/"+itoa(alice.ID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectValidationAndUniqueness(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	a.project(alice, "Delta")

	rec := a.doJSON(http.MethodPost, "/projects/", alice, `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")

	rec = a.doJSON(http.MethodPost, "/projects/", alice, `{"name":"Delta"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestProjectListHTML(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")

	rec := a.do(http.MethodGet, "/projects/", alice, nil, echo.HeaderAccept, echo.MIMETextHTML)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	rows := doc.Find("#project-list tbody tr[data-id]")
	require.Equal(t, 1, rows.Length())
	id, _ := rows.Attr("data-id")
	assert.Equal(t, itoa(pid), id)
	assert.Equal(t, "Delta", strings.TrimSpace(rows.Find("td").First().Text()))

	// fragments come without the page layout
	rec = a.do(http.MethodGet, "/projects/", alice, nil, htmx.HeaderRequest, "true")
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err = goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#project-list").Length())
	assert.Equal(t, 0, doc.Find("nav.navbar").Length())
}

func TestLocationDetailFormAndHistory(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	base := "/projects/" + itoa(pid) + "/locations/"

	rec := a.doJSON(http.MethodPost, base, alice, `{"name":"Well A","type":"well"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var invalid struct {
		Detail map[string]string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	assert.Equal(t, "This field is required.", invalid.Detail["casing_top"])

	lid := a.well(alice, pid, "Well A")

	var l entities.Location
	require.NoError(t, a.db.First(&l, lid).Error)
	assert.JSONEq(t, `{"depth":12,"casing_top":10,"screen_top":2,"screen_bottom":8,"diameter":50,"drill_type":"rotary_drilling","material":"pvc"}`, string(l.Detail))
	assert.Equal(t, alice.ID, *l.AddedByID)

	rec = a.doJSON(http.MethodPut, base+itoa(lid), alice, `{"name":"Well A","type":"well",
		"depth":12,"casing_top":10.5,"screen_top":2,"screen_bottom":8,"diameter":50,
		"drill_type":"rotary_drilling","material":"pvc",
		"history_date":"2024-01-15","history_reason":"re-surveyed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	hist := decodeList[entities.LocationHistory](t, a.do(http.MethodGet, base+itoa(lid)+"/history", alice, nil))
	require.Equal(t, int64(1), hist.Count)
	h := hist.Results[0]
	assert.Equal(t, "detail.casing_top", h.Field)
	assert.Equal(t, "10", h.OldValue)
	assert.Equal(t, "10.5", h.NewValue)
	assert.Equal(t, "re-surveyed", h.Reason)
	assert.Equal(t, "2024-01-15", h.EffectiveAt.Format("2006-01-02"))

	// switching the type replaces the payload
	rec = a.doJSON(http.MethodPut, base+itoa(lid), alice, `{"name":"Well A","type":"river","width":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, a.db.First(&l, lid).Error)
	assert.JSONEq(t, `{"width":3}`, string(l.Detail))

	rec = a.do(http.MethodGet, base+itoa(lid)+"/history", alice, nil, echo.HeaderAccept, echo.MIMETextHTML)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Greater(t, doc.Find("tbody tr[data-id]").Length(), 1)
	assert.Equal(t, 0, doc.Find(`a.button:contains("Add")`).Length(), "history is read-only")
}

func TestLocationUpdateKeepsStoredType(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	base := "/projects/" + itoa(pid) + "/locations/"
	lid := a.well(alice, pid, "Well A")

	rec := a.doJSON(http.MethodPut, base+itoa(lid), alice, `{"name":"Well B"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var l entities.Location
	require.NoError(t, a.db.First(&l, lid).Error)
	assert.Equal(t, "Well B", l.Name)
	assert.Equal(t, "well", l.Type)
	assert.JSONEq(t, `{"depth":12,"casing_top":10,"screen_top":2,"screen_bottom":8,"diameter":50,"drill_type":"rotary_drilling","material":"pvc"}`, string(l.Detail))

	hist := decodeList[entities.LocationHistory](t, a.do(http.MethodGet, base+itoa(lid)+"/history", alice, nil))
	require.Equal(t, int64(1), hist.Count, "only the name changed")
	assert.Equal(t, "name", hist.Results[0].Field)

	// one detail field on its own leaves the others as stored
	rec = a.doJSON(http.MethodPut, base+itoa(lid), alice, `{"casing_top":11}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, a.db.First(&l, lid).Error)
	assert.JSONEq(t, `{"depth":12,"casing_top":11,"screen_top":2,"screen_bottom":8,"diameter":50,"drill_type":"rotary_drilling","material":"pvc"}`, string(l.Detail))
}

func TestLocationWellToLake(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	rec := a.doJSON(http.MethodPut, "/projects/"+itoa(pid)+"/locations/"+itoa(lid), alice,
		`{"name":"Well A","type":"lake","depth":4,"area":1200}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var l entities.Location
	require.NoError(t, a.db.First(&l, lid).Error)
	assert.Equal(t, "lake", l.Type)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(l.Detail, &payload))
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"depth", "area"}, keys)
}

func TestLocationListExplanation(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")

	rec := a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/", alice, nil, echo.HeaderAccept, echo.MIMETextHTML)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.Find("p.explanation").Text(), "Locations are the wells")
	assert.Equal(t, "type", doc.Find("details.explanation b").First().Text())
	assert.Equal(t, 2, doc.Find("details.explanation p").Length())
}

func TestLocationExportAndGeoJSON(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	a.well(alice, pid, "Well A")

	rec := a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/?download=csv", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,type,latitude,longitude,altitude,status,detail", lines[0])

	rec = a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/geojson", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, []float64{5.2, 52.1}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Well A", fc.Features[0].Properties["name"])
}

func TestProjectDeleteRules(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	rec := a.do(http.MethodDelete, "/projects/"+itoa(pid), alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodDelete, "/projects/"+itoa(pid)+"/locations/"+itoa(lid), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/projects/"+itoa(pid)+"/fieldworks/", alice, url.Values{"date": {"2024-04-02"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fw entities.Fieldwork
	require.NoError(t, a.db.Where("project_id = ?", pid).First(&fw).Error)

	// a visit whose location has already gone, so the project is deletable
	visit := entities.LocationVisit{FieldworkID: fw.ID, LocationID: lid, Comment: "dry"}
	require.NoError(t, a.db.Create(&visit).Error)

	rec = a.do(http.MethodDelete, "/projects/"+itoa(pid), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var n int64
	a.db.Model(&entities.Fieldwork{}).Where("project_id = ?", pid).Count(&n)
	assert.Zero(t, n)
	a.db.Model(&entities.LocationVisit{}).Where("fieldwork_id = ?", fw.ID).Count(&n)
	assert.Zero(t, n, "visits go with their fieldwork")
	a.db.Table("project_members").Where("project_id = ?", pid).Count(&n)
	assert.Zero(t, n)
}

func TestVisitsKeepProjectProtected(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	rec := a.do(http.MethodPost, "/projects/"+itoa(pid)+"/fieldworks/", alice, url.Values{"date": {"2024-04-02"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fw entities.Fieldwork
	require.NoError(t, a.db.Where("project_id = ?", pid).First(&fw).Error)

	visits := "/projects/" + itoa(pid) + "/fieldworks/" + itoa(fw.ID) + "/visits/"
	rec = a.do(http.MethodPost, visits, alice, url.Values{"location_id": {itoa(lid)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decodeList[entities.LocationVisit](t, a.do(http.MethodGet, visits, alice, nil)).Count)

	rec = a.do(http.MethodDelete, "/projects/"+itoa(pid), alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "the location still protects the project")
	var n int64
	a.db.Model(&entities.LocationVisit{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestDeleteFromListTriggersRefresh(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	base := "/projects/" + itoa(pid) + "/locations"
	rec := a.do(http.MethodDelete, base+"/"+itoa(lid), alice, nil,
		htmx.HeaderRequest, "true",
		htmx.HeaderCurrentURL, "http://localhost"+base+"/")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get(htmx.HeaderRedirect))
	assert.Contains(t, rec.Header().Get(htmx.HeaderTrigger), "locationChanged")

	var n int64
	a.db.Model(&entities.Location{}).Count(&n)
	assert.Zero(t, n)
}

func TestDeleteFromOwnPageRedirects(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	rec := a.do(http.MethodPost, "/projects/"+itoa(pid)+"/fieldworks/", alice, url.Values{"date": {"2024-04-02"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var fw entities.Fieldwork
	require.NoError(t, a.db.First(&fw).Error)

	base := "/projects/" + itoa(pid) + "/fieldworks"
	rec = a.do(http.MethodDelete, base+"/"+itoa(fw.ID), alice, nil,
		htmx.HeaderRequest, "true",
		htmx.HeaderCurrentURL, "http://localhost"+base+"/"+itoa(fw.ID)+"/overview")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, base+"/", rec.Header().Get(htmx.HeaderRedirect))
}

func TestSensorDeployment(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	l1 := a.well(alice, pid, "Well A")
	l2 := a.well(alice, pid, "Well B")

	rec := a.do(http.MethodPost, "/sensors/", alice, url.Values{"identifier": {"LOG-1"}, "type": {"other"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s entities.Sensor
	require.NoError(t, a.db.Where("identifier = ?", "LOG-1").First(&s).Error)
	assert.True(t, s.Available)

	deployments := "/projects/" + itoa(pid) + "/deployments/"
	deploy := func(loc uint) *httptest.ResponseRecorder {
		return a.do(http.MethodPost, deployments, alice, url.Values{
			"location_id": {itoa(loc)}, "sensor_id": {itoa(s.ID)},
			"variable": {"level"}, "unit": {"m"},
			"deployed_at": {"2024-03-01T08:00"},
		})
	}
	rec = deploy(l1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, a.db.First(&s, s.ID).Error)
	assert.False(t, s.Available)

	rec = deploy(l2)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var n int64
	a.db.Model(&entities.Deployment{}).Count(&n)
	assert.Equal(t, int64(1), n, "a refused deployment leaves nothing behind")

	var d entities.Deployment
	require.NoError(t, a.db.First(&d).Error)

	rec = a.do(http.MethodPost, deployments+itoa(d.ID)+"/decommission", alice, url.Values{"decommissioned_at": {"2024-02-01"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, deployments+itoa(d.ID)+"/decommission", alice, url.Values{"decommissioned_at": {"2024-04-01T08:00"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, a.db.First(&s, s.ID).Error)
	assert.True(t, s.Available)

	rec = a.do(http.MethodPost, deployments+itoa(d.ID)+"/decommission", alice, url.Values{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodDelete, "/sensors/"+itoa(s.ID), alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	list := decodeList[entities.Deployment](t, a.do(http.MethodGet, deployments, alice, nil))
	require.Equal(t, int64(1), list.Count)
	assert.Equal(t, "LOG-1", list.Results[0].SensorIdentifier)
	assert.Equal(t, "Well A", list.Results[0].LocationName)

	bob := a.user("bob@example.org", true)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/sensors/"+itoa(s.ID), bob, nil).Code)
}

func TestGroundwaterElevation(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	rec := a.doJSON(http.MethodPost, "/projects/"+itoa(pid)+"/locations/", alice, `{"name":"River","type":"river"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var river entities.Location
	require.NoError(t, a.db.Where("name = ?", "River").First(&river).Error)

	rec = a.do(http.MethodPost, "/projects/"+itoa(pid)+"/fieldworks/", alice, url.Values{"date": {"2024-04-02"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var fw entities.Fieldwork
	require.NoError(t, a.db.First(&fw).Error)

	levels := "/projects/" + itoa(pid) + "/fieldworks/" + itoa(fw.ID) + "/gwlmeasurements/"
	rec = a.do(http.MethodPost, levels, alice, url.Values{"location_id": {itoa(river.ID)}, "depth": {"1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, levels, alice, url.Values{"location_id": {itoa(lid)}, "depth": {"2.5"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	list := decodeList[entities.GWLMeasurement](t, a.do(http.MethodGet, levels, alice, nil))
	require.Len(t, list.Results, 1)
	require.NotNil(t, list.Results[0].Elevation)
	assert.InDelta(t, 7.5, *list.Results[0].Elevation, 1e-9)
	assert.Equal(t, "Well A", list.Results[0].LocationName)

	// a location with measurements cannot be deleted
	rec = a.do(http.MethodDelete, "/projects/"+itoa(pid)+"/locations/"+itoa(lid), alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSamplesAndBulkMeasurements(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	samples := "/projects/" + itoa(pid) + "/locations/" + itoa(lid) + "/samples/"
	rec := a.do(http.MethodPost, samples, alice, url.Values{"timestamp": {"2024-04-02T10:00"}, "target_parameters": {"nutrients"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var smp entities.Sample
	require.NoError(t, a.db.First(&smp).Error)

	measurements := samples + itoa(smp.ID) + "/measurements/"
	rec = a.do(http.MethodPost, measurements, alice, url.Values{
		"bulk":      {"true"},
		"parameter": {"NO3", "PO4"},
		"value":     {"12.1", "0.4"},
		"unit":      {"mg/l", "mg/l"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, measurements, alice, url.Values{
		"bulk":      {"true"},
		"parameter": {"NO3", "PO4"},
		"value":     {"12.1"},
		"unit":      {"mg/l", "mg/l"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decodeList[entities.Measurement](t, a.do(http.MethodGet, measurements, alice, nil))
	assert.Equal(t, int64(2), list.Count)

	got := decodeList[entities.Sample](t, a.do(http.MethodGet, samples, alice, nil))
	require.Len(t, got.Results, 1)
	assert.Equal(t, int64(2), got.Results[0].MeasurementCount)

	rec = a.do(http.MethodDelete, samples+itoa(smp.ID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var n int64
	a.db.Model(&entities.Measurement{}).Count(&n)
	assert.Zero(t, n)
}

func TestProtocolsAreOwned(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	bob := a.user("bob@example.org", true)

	rec := a.do(http.MethodPost, "/protocols/", alice, url.Values{"method_name": {"Nitrate (IC)"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p entities.Protocol
	require.NoError(t, a.db.First(&p).Error)
	assert.Equal(t, "nitrate-ic", p.Slug)

	assert.Equal(t, int64(1), decodeList[entities.Protocol](t, a.do(http.MethodGet, "/protocols/", alice, nil)).Count)
	assert.Equal(t, int64(0), decodeList[entities.Protocol](t, a.do(http.MethodGet, "/protocols/", bob, nil)).Count)

	rec = a.do(http.MethodPost, "/protocols/", alice, url.Values{"method_name": {"!!!"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	a.well(alice, pid, "Well A")

	rec := a.do(http.MethodDelete, "/projects/"+itoa(pid), alice, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do(http.MethodGet, "/projects/"+itoa(pid)+"/locations/999", alice, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/metrics", nil, nil, echo.HeaderAccept, "text/plain")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "watersync_mutations_total")
	assert.Contains(t, body, `watersync_http_requests_total{method="DELETE",route="/projects/:id",status="409"}`)
	assert.Contains(t, body, `watersync_http_requests_total{method="GET",route="/projects/:project_pk/locations/:id",status="404"}`)
}

func TestRecordUpload(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice@example.org", true)
	pid := a.project(alice, "Delta")
	lid := a.well(alice, pid, "Well A")

	rec := a.do(http.MethodPost, "/sensors/", alice, url.Values{"identifier": {"LOG-2"}, "type": {"other"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s entities.Sensor
	require.NoError(t, a.db.First(&s).Error)
	rec = a.do(http.MethodPost, "/projects/"+itoa(pid)+"/deployments/", alice, url.Values{
		"location_id": {itoa(lid)}, "sensor_id": {itoa(s.ID)}, "variable": {"pressure"}, "unit": {"cmH2O"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d entities.Deployment
	require.NoError(t, a.db.First(&d).Error)

	records := "/projects/" + itoa(pid) + "/deployments/" + itoa(d.ID) + "/records/"
	upload := func(csv string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "records.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, records+"upload", &body)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
		tok, err := session.Issue([]byte(a.cfg.SessionSecret), alice.ID, alice.Email, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		out := httptest.NewRecorder()
		a.e.ServeHTTP(out, req)
		return out
	}

	rec = upload("timestamp,value\n2024-05-01T00:00,101.5\n2024-05-01T01:00,101.7\n2024-05-01T00:00,101.5\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"created":2,"skipped":1}`, rec.Body.String())

	list := decodeList[entities.SensorRecord](t, a.do(http.MethodGet, records, alice, nil))
	require.Equal(t, int64(2), list.Count)
	assert.Equal(t, "pressure", list.Results[0].Type)
	assert.Equal(t, "cmH2O", list.Results[0].Unit)

	rec = upload("timestamp,value\n2024-05-02T00:00,abc\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid input")

	rec = a.do(http.MethodGet, records+"?date_start=2024-05-01&date_end=2024-05-01", alice, nil)
	assert.Equal(t, int64(2), decodeList[entities.SensorRecord](t, rec).Count)
	rec = a.do(http.MethodGet, records+"?date_start=2024-05-02", alice, nil)
	assert.Equal(t, int64(0), decodeList[entities.SensorRecord](t, rec).Count)

	// bounds that are not dates are ignored rather than compared as text
	rec = a.do(http.MethodGet, records+"?date_start=soon&date_end=later", alice, nil)
	assert.Equal(t, int64(2), decodeList[entities.SensorRecord](t, rec).Count)
}
