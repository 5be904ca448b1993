package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/argushq/argus/internal/chat"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/threads"
)

// layout is what every signed-in page shows around its content.
type layout struct {
	User   db.User
	Chats  []db.Chat
	Issues []db.Issue
}

// loadLayout reads the sidebar data in parallel. Each part is best-effort: a failure
// leaves that part empty. When emails is nil the thread cache is warmed in the
// background for the Emails tab; otherwise the thread snapshot is loaded into it.
func (s *Server) loadLayout(ctx context.Context, log *zerolog.Logger, u db.User, emails *emailsView) layout {
	l := layout{User: u}
	if emails == nil && s.Threads != nil {
		s.Threads.Warm(owner(u), threads.DefaultQuery())
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		chats, err := s.Q.ListChats(gctx, u.ID)
		if err != nil {
			log.Warn().Err(err).Msg("layout: list chats failed")
			return nil
		}
		l.Chats = chats
		return nil
	})
	g.Go(func() error {
		issues, err := s.Q.ListIssues(gctx, u.ID)
		if err != nil {
			log.Warn().Err(err).Msg("layout: list issues failed")
			return nil
		}
		l.Issues = issues
		return nil
	})
	if emails != nil {
		g.Go(func() error {
			*emails = s.snapshot(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return l
}

func (l layout) data(title string) map[string]any {
	return map[string]any{
		"Title":  title,
		"User":   l.User,
		"Chats":  l.Chats,
		"Issues": l.Issues,
	}
}

func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	tab := r.URL.Query().Get("tab")
	var emails *emailsView
	if tab == "emails" {
		emails = &emailsView{}
	}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, emails).data("Home")
	data["Tab"] = tab
	if emails != nil {
		data["Emails"] = emails
	}
	s.render(w, r, "app", data)
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	issue, err := s.Q.GetIssue(r.Context(), db.GetIssueParams{ID: id, UserID: u.ID})
	if db.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("issue_id", id).Msg("get issue failed")
		http.Error(w, "could not load issue", http.StatusInternalServerError)
		return
	}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, nil).data(issue.Title.String)
	data["Issue"] = issue
	s.render(w, r, "issue", data)
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	_ = r.ParseForm()
	title := strings.TrimSpace(r.Form.Get("title"))
	if title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}
	issue, err := s.createIssue(r.Context(), u, title, r.Form.Get("description"))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create issue failed")
		http.Error(w, "could not create issue", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/issues/"+strconv.FormatInt(issue.ID, 10), http.StatusSeeOther)
}

func (s *Server) createIssue(ctx context.Context, u db.User, title, description string) (db.Issue, error) {
	description = strings.TrimSpace(description)
	return s.Q.CreateIssue(ctx, db.CreateIssueParams{
		UserID:      u.ID,
		Title:       pgtype.Text{String: title, Valid: true},
		Description: pgtype.Text{String: description, Valid: description != ""},
	})
}

func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	c, err := s.Q.CreateChat(r.Context(), db.CreateChatParams{UserID: u.ID, Title: chat.DefaultTitle})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create chat failed")
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/chat/"+c.ID.String(), http.StatusSeeOther)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.renderChat(w, r, http.StatusOK, "")
}

func (s *Server) renderChat(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	c, err := s.Q.GetChat(r.Context(), db.GetChatParams{ID: id, UserID: u.ID})
	if db.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("get chat failed")
		http.Error(w, "could not load chat", http.StatusInternalServerError)
		return
	}
	msgs, err := s.Q.ListMessages(r.Context(), id)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("list messages failed")
	}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, nil).data(c.Title)
	data["Chat"] = c
	data["Messages"] = msgs
	data["Error"] = errMsg
	s.renderStatus(w, r, status, "chat", data)
}

func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	_ = r.ParseForm()
	_, err = s.Chat.Reply(r.Context(), u.ID, id, r.Form.Get("content"))
	if err != nil {
		status, msg := chatErrorStatus(err)
		hlog.FromRequest(r).Warn().Err(err).Msg("chat reply failed")
		if status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		s.renderChat(w, r, status, msg)
		return
	}
	http.Redirect(w, r, "/chat/"+id.String(), http.StatusSeeOther)
}

func chatErrorStatus(err error) (int, string) {
	var ue *chat.UpstreamError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrChatNotFound):
		return http.StatusNotFound, "Chat not found"
	case errors.Is(err, chat.ErrUnavailable):
		return http.StatusInternalServerError, err.Error()
	case errors.As(err, &ue):
		return http.StatusBadGateway, "Failed to get assistant response"
	default:
		return http.StatusInternalServerError, "Failed to process message"
	}
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	projects, err := s.listProjects(r.Context(), u)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list projects failed")
	}
	data := s.loadLayout(r.Context(), hlog.FromRequest(r), u, nil).data("Projects")
	data["Projects"] = projects
	data["Uploads"] = s.Uploader != nil
	s.render(w, r, "projects", data)
}

func (s *Server) handleCreateProjectForm(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	if _, err := s.createProject(r, u); err != nil {
		status := projectErrorStatus(err)
		hlog.FromRequest(r).Warn().Err(err).Msg("create project failed")
		http.Error(w, err.Error(), status)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

func (s *Server) handleLinkLobby(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	_ = r.ParseForm()
	lobbyID := strings.TrimSpace(r.Form.Get("lobby_user_id"))
	if _, err := s.Q.UpdateUserLobby(r.Context(), db.UpdateUserLobbyParams{
		ID:          u.ID,
		LobbyUserID: pgtype.Text{String: lobbyID, Valid: lobbyID != ""},
	}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("update lobby link failed")
		http.Error(w, "could not save lobby account", http.StatusInternalServerError)
		return
	}
	if s.Threads != nil {
		s.Threads.Forget(u.ID.String())
	}
	http.Redirect(w, r, "/app?tab=emails", http.StatusSeeOther)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUserRow(w, r)
	if !ok {
		return
	}
	session := map[string]any{}
	for _, k := range s.Sess.Keys(r.Context()) {
		session[k] = s.Sess.Get(r.Context(), k)
	}
	s.render(w, r, "debug", map[string]any{
		"Title":   "Session Debug",
		"User":    u,
		"Session": session,
	})
}
