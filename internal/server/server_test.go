package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/staffdir/internal/auth"
	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/prefs"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
	"github.com/roach88/staffdir/internal/store"
	"github.com/roach88/staffdir/internal/testutil"
)

type testEnv struct {
	server   *Server
	state    *roster.State
	prefs    *prefs.Prefs
	sessions *auth.Sessions
}

func newTestEnv(t *testing.T, gated bool) *testEnv {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rnd, err := render.New(render.DefaultOptions())
	require.NoError(t, err)

	state := roster.NewState()
	state.Replace(testutil.DirectorySnapshot())

	env := &testEnv{state: state, prefs: prefs.New(st)}
	opts := Options{
		State:    state,
		Renderer: rnd,
		Prefs:    env.prefs,
		Debounce: 300 * time.Millisecond,
	}
	if gated {
		hash, err := bcrypt.GenerateFromPassword([]byte("1"), bcrypt.MinCost)
		require.NoError(t, err)
		v, err := auth.NewStaticVerifier(map[string]string{"admin": string(hash)})
		require.NoError(t, err)
		sessions, err := auth.NewSessions([]byte(strings.Repeat("x", auth.MinSecretLen)), time.Hour)
		require.NoError(t, err)
		opts.Verifier = v
		opts.Sessions = sessions
		env.sessions = sessions
	}

	env.server, err = New(opts)
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) authed(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	token, _, err := e.sessions.Issue("admin")
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	return req
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	rnd, err := render.New(render.DefaultOptions())
	require.NoError(t, err)
	_, err = New(Options{State: roster.NewState(), Renderer: rnd, Verifier: &auth.StaticVerifier{}})
	assert.ErrorContains(t, err, "sessions")
}

func TestIndex_RendersAll(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "عدد النتائج: 4")
	assert.Equal(t, 4, strings.Count(body, `class="employee-card"`))
	assert.Contains(t, body, `id="rankFilter"`)
}

func TestIndex_AppliesQueryCriteria(t *testing.T) {
	env := newTestEnv(t, false)

	q := url.Values{"rank": {"مستشار"}, "q": {"omar"}}
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "عدد النتائج: 1")
	assert.Contains(t, body, `data-id="103"`)
	assert.NotContains(t, body, `data-id="101"`)
	assert.Contains(t, body, `<option value="مستشار" selected="selected">`)
	assert.Contains(t, body, `value="omar"`)
}

func TestIndex_EmptyState(t *testing.T) {
	env := newTestEnv(t, false)
	env.state.Replace(nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "عدد النتائج: 0")
}

func TestDetails(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/employees/101", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "الهاتف: 01001234567")
	assert.Contains(t, rec.Body.String(), `href="https://wa.me/&#43;2001001234567"`)
}

func TestDetails_NotFound(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/employees/999", "/employees/abc"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "not found", path)
	}
}

func TestDetails_BackLinkKeepsFilters(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodGet, "/employees/101", nil)
	req.Header.Set("Referer", "http://example.com/?rank=x")
	rec := env.do(t, req)
	assert.Contains(t, rec.Body.String(), `href="/?rank=x"`)

	req = httptest.NewRequest(http.MethodGet, "/employees/101", nil)
	req.Header.Set("Referer", "http://evil.example/?rank=x")
	rec = env.do(t, req)
	assert.Contains(t, rec.Body.String(), `<a href="/" class="back-link">`)
}

func TestAPIEmployees(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/employees?sector="+url.QueryEscape("الجنوب"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp EmployeesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, "الجنوب", resp.Criteria.Sector)
	require.Len(t, resp.Employees, 2)
	assert.Equal(t, 103, resp.Employees[0].ConsultantID)
	assert.Equal(t, 104, resp.Employees[1].ConsultantID)
}

func TestAPIFacets(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/facets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got filter.FacetValues
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, filter.Facets(testutil.DirectorySnapshot()), got)
}

func TestDarkMode(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	rec := env.do(t, postForm("/preferences/dark-mode", url.Values{"enabled": {"true"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	on, err := env.prefs.DarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	page := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, page.Body.String(), `<body class="dark-mode">`)

	rec = env.do(t, postForm("/preferences/dark-mode", url.Values{"enabled": {"false"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	on, err = env.prefs.DarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestDarkMode_BadValue(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, postForm("/preferences/dark-mode", url.Values{"enabled": {"maybe"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","records":4}`, rec.Body.String())
}

func TestGate_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/?rank=A", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2F%3Frank%3DA", rec.Header().Get("Location"))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGate_LoginPage(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/login?next=%2F%3Frank%3DA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="loginModal"`)
	assert.Contains(t, body, `name="next" value="/?rank=A"`)
	assert.NotContains(t, body, render.LoginFailedMessage)

	// Already logged in: straight through.
	rec = env.do(t, env.authed(t, httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGate_LoginMismatch(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, postForm("/login", url.Values{"username": {"admin"}, "password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, render.LoginFailedMessage)
	assert.Contains(t, body, `value="admin"`)
	assert.Empty(t, rec.Result().Cookies())
}

func TestGate_LoginSuccess(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, postForm("/login", url.Values{
		"username": {"admin"},
		"password": {"1"},
		"next":     {"/employees/101"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/employees/101", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/employees/101", nil)
	req.AddCookie(cookies[0])
	page := env.do(t, req)
	assert.Equal(t, http.StatusOK, page.Code)
}

func TestGate_LoginRejectsOffsiteNext(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, postForm("/login", url.Values{
		"username": {"admin"},
		"password": {"1"},
		"next":     {"//evil.example"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGate_Logout(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, env.authed(t, postForm("/logout", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

type loginCounter struct {
	metrics.NoOp
	ok, failed int
}

func (c *loginCounter) Login(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func TestGate_LoginMetrics(t *testing.T) {
	env := newTestEnv(t, true)
	counter := &loginCounter{}
	env.server.opts.Metrics = counter

	env.do(t, postForm("/login", url.Values{"username": {"admin"}, "password": {"nope"}}))
	env.do(t, postForm("/login", url.Values{"username": {"admin"}, "password": {"1"}}))

	assert.Equal(t, 1, counter.ok)
	assert.Equal(t, 1, counter.failed)
}

func TestMetricsEndpoint(t *testing.T) {
	prom := metrics.NewPrometheus()
	rnd, err := render.New(render.DefaultOptions())
	require.NoError(t, err)
	srv, err := New(Options{
		State:          roster.NewState(),
		Renderer:       rnd,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staffdir_filter_matches")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t, false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln, Timeouts{Shutdown: time.Second}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
