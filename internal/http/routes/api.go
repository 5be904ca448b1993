package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/storage"
)

const maxUploadMemory = 32 << 20

type apiError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, e)
}

// apiUser is currentUser for JSON handlers: on failure it has already written a 401.
func (s *Server) apiUser(w http.ResponseWriter, r *http.Request) (db.User, bool) {
	u, err := s.currentUser(r)
	if err != nil {
		if !db.IsNotFound(err) {
			hlog.FromRequest(r).Error().Err(err).Msg("load current user")
		}
		writeError(w, http.StatusUnauthorized, apiError{Error: "Unauthorized"})
		return u, false
	}
	return u, true
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	u, ok := s.apiUser(w, r)
	if !ok {
		return
	}
	var body struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	chatID, err := uuid.Parse(strings.TrimSpace(body.ChatID))
	if err != nil || strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, apiError{Error: "chatId and content are required"})
		return
	}
	res, err := s.Chat.Reply(r.Context(), u.ID, chatID, body.Content)
	if err != nil {
		status, msg := chatErrorStatus(err)
		hlog.FromRequest(r).Warn().Err(err).Int("status", status).Msg("chat api failed")
		writeError(w, status, apiError{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIIssues(w http.ResponseWriter, r *http.Request) {
	u, ok := s.apiUser(w, r)
	if !ok {
		return
	}
	issues, err := s.Q.ListIssues(r.Context(), u.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list issues failed")
		writeError(w, http.StatusInternalServerError, apiError{Error: "Failed to fetch issues"})
		return
	}
	if issues == nil {
		issues = []db.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) handleAPICreateIssue(w http.ResponseWriter, r *http.Request) {
	u, ok := s.apiUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	title := strings.TrimSpace(body.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, apiError{Error: "Title is required"})
		return
	}
	issue, err := s.createIssue(r.Context(), u, title, body.Description)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create issue failed")
		writeError(w, http.StatusInternalServerError, apiError{Error: "Failed to create issue"})
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// projectWithFiles is a project as the API and the Projects page show it.
type projectWithFiles struct {
	db.Project
	Files []db.ProjectFile `json:"files"`
}

func (s *Server) listProjects(ctx context.Context, u db.User) ([]projectWithFiles, error) {
	projects, err := s.Q.ListProjects(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	out := make([]projectWithFiles, len(projects))
	for i, p := range projects {
		files, err := s.Q.ListProjectFiles(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if files == nil {
			files = []db.ProjectFile{}
		}
		out[i] = projectWithFiles{Project: p, Files: files}
	}
	return out, nil
}

func (s *Server) handleAPIProjects(w http.ResponseWriter, r *http.Request) {
	u, ok := s.apiUser(w, r)
	if !ok {
		return
	}
	projects, err := s.listProjects(r.Context(), u)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list projects failed")
		writeError(w, http.StatusInternalServerError, apiError{Error: "Failed to fetch projects"})
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleAPICreateProject(w http.ResponseWriter, r *http.Request) {
	u, ok := s.apiUser(w, r)
	if !ok {
		return
	}
	p, err := s.createProject(r, u)
	if err != nil {
		status := projectErrorStatus(err)
		if status == http.StatusInternalServerError {
			hlog.FromRequest(r).Error().Err(err).Msg("create project failed")
			writeError(w, status, apiError{Error: "Failed to create project"})
			return
		}
		writeError(w, status, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

var (
	errTitleRequired     = errors.New("Title is required")
	errStorageDisabled   = errors.New("file storage is not configured")
	errBadMultipartInput = errors.New("expected a multipart form")
)

func projectErrorStatus(err error) int {
	switch {
	case errors.Is(err, errTitleRequired), errors.Is(err, errBadMultipartInput):
		return http.StatusBadRequest
	case errors.Is(err, errStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// createProject reads a multipart form (title, description, files) and uploads every
// file under the new project's prefix.
func (s *Server) createProject(r *http.Request, u db.User) (projectWithFiles, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return projectWithFiles{}, fmt.Errorf("%w: %v", errBadMultipartInput, err)
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return projectWithFiles{}, errTitleRequired
	}
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) > 0 && s.Uploader == nil {
		return projectWithFiles{}, errStorageDisabled
	}

	desc := strings.TrimSpace(r.FormValue("description"))
	p, err := s.Q.CreateProject(r.Context(), db.CreateProjectParams{
		UserID:      u.ID,
		Title:       title,
		Description: pgtype.Text{String: desc, Valid: desc != ""},
	})
	if err != nil {
		return projectWithFiles{}, err
	}

	files := make([]db.ProjectFile, len(headers))
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, fh := range headers {
		i, fh := i, fh
		g.Go(func() error {
			f, err := s.uploadFile(gctx, p, fh)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return projectWithFiles{}, err
	}
	return projectWithFiles{Project: p, Files: files}, nil
}

func (s *Server) uploadFile(ctx context.Context, p db.Project, fh *multipart.FileHeader) (db.ProjectFile, error) {
	f, err := fh.Open()
	if err != nil {
		return db.ProjectFile{}, err
	}
	defer f.Close() //nolint:errcheck

	key := storage.ObjectKey(p.ID.String(), fh.Filename, s.now())
	mime := fh.Header.Get("Content-Type")
	url, err := s.Uploader.Upload(ctx, key, f, mime)
	if err != nil {
		return db.ProjectFile{}, err
	}
	return s.Q.CreateProjectFile(ctx, db.CreateProjectFileParams{
		ProjectID: p.ID,
		Name:      fh.Filename,
		ObjectKey: key,
		URL:       url,
		Size:      fh.Size,
		MimeType:  pgtype.Text{String: mime, Valid: mime != ""},
	})
}
