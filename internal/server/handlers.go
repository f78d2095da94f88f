package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/auth"
	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
)

// criteriaFromRequest reads rank, branch, section, sector and q.
func criteriaFromRequest(r *http.Request) roster.Criteria {
	q := r.URL.Query()
	return roster.Criteria{
		Rank:    q.Get(string(roster.FacetRank)),
		Branch:  q.Get(string(roster.FacetBranch)),
		Section: q.Get(string(roster.FacetSection)),
		Sector:  q.Get(string(roster.FacetSector)),
		Search:  q.Get("q"),
	}
}

func (s *Server) darkMode(r *http.Request) bool {
	if s.opts.Prefs == nil {
		return false
	}
	on, err := s.opts.Prefs.DarkMode(r.Context())
	if err != nil {
		s.logger.Warn("read dark mode preference", zap.Error(err))
		return false
	}
	return on
}

func writeHTML(w http.ResponseWriter, status int, body *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = body.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	s.logger.Error("render failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.State.Snapshot()
	c := criteriaFromRequest(r)
	results := filter.Apply(snap, c)
	s.opts.Metrics.FilterApplied(len(results))

	var buf bytes.Buffer
	err := s.opts.Renderer.Page(&buf, render.PageData{
		Snapshot: snap,
		Results:  results,
		Criteria: c,
		DarkMode: s.darkMode(r),
		Debounce: s.opts.Debounce,
	})
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("employee %q not found", raw), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	err = s.opts.Renderer.DetailsPage(&buf, render.DetailsPageData{
		Snapshot: s.opts.State.Snapshot(),
		ID:       id,
		DarkMode: s.darkMode(r),
		BackPath: backPath(r),
	})
	if errors.Is(err, roster.ErrNotFound) {
		http.Error(w, fmt.Sprintf("employee %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// backPath returns the referring list page when it is local.
func backPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || u.Path != "/" {
		return "/"
	}
	return auth.SafeNext(u.RequestURI())
}

// EmployeesResponse is the body of GET /api/employees.
type EmployeesResponse struct {
	Count     int                     `json:"count"`
	Total     int                     `json:"total"`
	Criteria  roster.Criteria         `json:"criteria"`
	Employees []roster.EmployeeRecord `json:"employees"`
}

func (s *Server) handleAPIEmployees(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.State.Snapshot()
	c := criteriaFromRequest(r)
	results := filter.Apply(snap, c)
	s.opts.Metrics.FilterApplied(len(results))

	writeJSON(w, http.StatusOK, EmployeesResponse{
		Count:     len(results),
		Total:     len(snap),
		Criteria:  c,
		Employees: results,
	})
}

func (s *Server) handleAPIFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filter.Facets(s.opts.State.Snapshot()))
}

func (s *Server) handleDarkMode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	on, err := strconv.ParseBool(r.PostForm.Get("enabled"))
	if err != nil {
		http.Error(w, "enabled must be true or false", http.StatusBadRequest)
		return
	}
	if s.opts.Prefs == nil {
		http.Error(w, "preferences are not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.opts.Prefs.SetDarkMode(r.Context(), on); err != nil {
		s.logger.Error("write dark mode preference", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, auth.SafeNext(r.PostForm.Get("next")), http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": s.opts.State.Len(),
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"))
	if auth.ClaimsFrom(r.Context()) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, http.StatusOK, render.LoginData{Next: next})
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, data render.LoginData) {
	data.DarkMode = s.darkMode(r)
	var buf bytes.Buffer
	if err := s.opts.Renderer.Login(&buf, data); err != nil {
		s.renderFailed(w, err)
		return
	}
	writeHTML(w, status, &buf)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	next := auth.SafeNext(r.PostForm.Get("next"))

	err := s.opts.Verifier.Verify(r.Context(), username, password)
	s.opts.Metrics.Login(err == nil)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Info("login rejected", zap.String("username", username))
		s.renderLogin(w, r, http.StatusUnauthorized, render.LoginData{
			Failed:   true,
			Username: username,
			Next:     next,
		})
		return
	}
	if err != nil {
		s.logger.Error("verify credentials", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, exp, err := s.opts.Sessions.Issue(username)
	if err != nil {
		s.logger.Error("issue session", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, token, exp, s.opts.SecureCookies)
	s.logger.Info("login accepted", zap.String("username", username))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	target := "/"
	if s.gated() {
		target = "/login"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
