package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/lobby"
	"github.com/argushq/argus/internal/threads"
)

// emailsView is the thread table plus the state around it.
type emailsView struct {
	Threads     []threads.Thread
	Count       int
	Remaining   int
	HasMore     bool
	FromCache   bool
	NotLinked   bool
	Unavailable bool
	Error       string
}

func newEmailsView(p threads.Page, fromCache bool) emailsView {
	return emailsView{
		Threads:   threads.SortByRecency(p.Results),
		Count:     p.Count,
		Remaining: p.Remaining,
		HasMore:   p.HasMore(),
		FromCache: fromCache,
	}
}

func (v *emailsView) fail(err error) {
	switch {
	case errors.Is(err, threads.ErrNotLinked):
		v.NotLinked = true
	default:
		v.Error = err.Error()
	}
}

// snapshot renders from the cache when it can and refreshes behind the response.
func (s *Server) snapshot(ctx context.Context, u db.User) emailsView {
	if s.Threads == nil {
		return emailsView{Unavailable: true}
	}
	p, cached, err := s.Threads.Snapshot(ctx, owner(u), threads.DefaultQuery())
	if err != nil {
		v := emailsView{}
		v.fail(err)
		return v
	}
	return newEmailsView(p, cached)
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	v := emailsView{}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, &v).data("Emails")
	if v.Error != "" {
		hlog.FromRequest(r).Warn().Str("error", v.Error).Msg("emails: load threads failed")
	}
	data["Emails"] = &v
	s.render(w, r, "emails", data)
}

// handleEmailsMore grows the cached window by one page. Nothing is fetched once
// upstream reports no remaining threads.
func (s *Server) handleEmailsMore(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	var v emailsView
	if s.Threads == nil {
		v.Unavailable = true
	} else {
		p, err := s.Threads.LoadMore(r.Context(), owner(u), threads.DefaultQuery())
		v = newEmailsView(p, false)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("emails: load more failed")
			v.fail(err)
		}
	}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, nil).data("Emails")
	data["Emails"] = &v
	s.render(w, r, "emails", data)
}

// handleAPIThreads relays one page of the Lobby thread list as JSON.
func (s *Server) handleAPIThreads(w http.ResponseWriter, r *http.Request) {
	if s.Threads == nil {
		writeError(w, http.StatusServiceUnavailable, apiError{
			Error: "Lobby API key not configured",
			Code:  "MISSING_API_KEY",
			Hint:  "Set THELOBBY_API_KEY or LOBBY_BEARER_TOKEN",
		})
		return
	}
	u, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, apiError{Error: "Unauthorized"})
		return
	}
	q, cursor := threadsQuery(r)
	p, err := s.Threads.Fetch(r.Context(), owner(u), q, cursor)
	var se *lobby.StatusError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, p)
	case errors.Is(err, threads.ErrNotLinked):
		writeError(w, http.StatusConflict, apiError{
			Error: "No Lobby account linked",
			Code:  "LOBBY_NOT_LINKED",
			Hint:  "Link your Lobby user id under Settings",
		})
	case errors.As(err, &se):
		hlog.FromRequest(r).Warn().Int("status", se.Code).Str("body", se.Body).Msg("lobby api error")
		writeError(w, se.Code, apiError{Error: se.Error(), Details: se.Body})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("threads relay failed")
		writeError(w, http.StatusInternalServerError, apiError{Error: err.Error(), Details: err.Error()})
	}
}

// threadsQuery reads cursor, limit, sort_field and descending; anything missing or
// malformed takes its default.
func threadsQuery(r *http.Request) (threads.Query, int) {
	v := r.URL.Query()
	q := threads.DefaultQuery()
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	if f := strings.TrimSpace(v.Get("sort_field")); f != "" {
		q.SortField = f
	}
	if b, err := strconv.ParseBool(v.Get("descending")); err == nil {
		q.Descending = b
	}
	cursor, err := strconv.Atoi(v.Get("cursor"))
	if err != nil || cursor < 0 {
		cursor = 0
	}
	return q.Normalize(), cursor
}
