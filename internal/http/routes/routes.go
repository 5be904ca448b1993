package routes

import (
	"context"
	"html/template"
	"net/http"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/argushq/argus/internal/auth"
	"github.com/argushq/argus/internal/chat"
	"github.com/argushq/argus/internal/config"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/email"
	appmw "github.com/argushq/argus/internal/http/middleware"
	"github.com/argushq/argus/internal/storage"
	"github.com/argushq/argus/internal/threads"
)

const sessionUserKey = "user_id"

type Server struct {
	Router   *chi.Mux
	Sess     *scs.SessionManager
	Tmpl     *template.Template
	Q        db.Querier
	Threads  *threads.Service // nil when no Lobby token is configured
	Chat     *chat.Service
	Magic    auth.MagicLink
	Signer   auth.Signer
	Google   *oauth2.Config // nil when Google sign-in is not configured
	Uploader storage.Uploader
	Email    email.Sender
	Log      zerolog.Logger

	googleUserinfoURL string
	now               func() time.Time
}

type ServerOptions struct {
	Sess     *scs.SessionManager
	Tmpl     *template.Template
	Q        db.Querier
	Threads  *threads.Service
	Chat     *chat.Service
	Uploader storage.Uploader
	Email    email.Sender
	Cfg      *config.Config
	Log      zerolog.Logger

	// GoogleUserinfoURL overrides the profile endpoint, for tests.
	GoogleUserinfoURL string
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	signer := auth.NewSigner(opts.Cfg.SessionSecret)
	s := &Server{
		Router:            r,
		Sess:              opts.Sess,
		Tmpl:              opts.Tmpl,
		Q:                 opts.Q,
		Threads:           opts.Threads,
		Chat:              opts.Chat,
		Magic:             auth.MagicLink{Signer: signer, BaseURL: opts.Cfg.BaseURL},
		Signer:            signer,
		Uploader:          opts.Uploader,
		Email:             opts.Email,
		Log:               opts.Log,
		googleUserinfoURL: opts.GoogleUserinfoURL,
		now:               time.Now,
	}
	if opts.Cfg.HasGoogle() {
		s.Google = auth.GoogleConfig(opts.Cfg.Google.ClientID, opts.Cfg.Google.ClientSecret, opts.Cfg.BaseURL)
	}
	if s.googleUserinfoURL == "" {
		s.googleUserinfoURL = auth.GoogleUserinfoURL
	}
	if s.Email == nil {
		s.Email = email.StdoutSender{Log: opts.Log}
	}

	r.Use(hlog.NewHandler(opts.Log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.Sess.LoadAndSave)
	r.Use(s.sessionToContext)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Get("/", s.handleHome)
	r.Get("/pricing", s.handlePricing)
	r.Group(func(gr chi.Router) {
		gr.Use(appmw.RedirectIfSignedIn("/app"))
		gr.Get("/login", s.handleLogin)
		gr.Get("/signup", s.handleSignup)
	})
	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/signup", s.handleSignUp)
	r.Post("/auth/magic-link", s.handleMagicLink)
	r.Get("/auth/magic/callback", s.handleMagicCallback)
	r.Get("/auth/google/start", s.handleGoogleStart)
	r.Get("/auth/google/callback", s.handleGoogleCallback)
	r.Post("/logout", s.handleLogout)

	r.Get("/dashboard", redirectTo("/app"))
	r.Get("/dashboard/issues/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/issues/"+chi.URLParam(r, "id"), http.StatusMovedPermanently)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(appmw.RequireUser)
		pr.Get("/app", s.handleApp)
		pr.Get("/emails", s.handleEmails)
		pr.Post("/emails/more", s.handleEmailsMore)
		pr.Get("/issues/{id}", s.handleIssue)
		pr.Post("/issues", s.handleCreateIssue)
		pr.Get("/new", s.handleNewChat)
		pr.Get("/chat/{id}", s.handleChat)
		pr.Post("/chat/{id}", s.handleChatPost)
		pr.Get("/projects", s.handleProjects)
		pr.Post("/projects", s.handleCreateProjectForm)
		pr.Post("/settings/lobby", s.handleLinkLobby)
		pr.Get("/debug", s.handleDebug)

		pr.Route("/api", func(api chi.Router) {
			api.Get("/threads", s.handleAPIThreads)
			api.Post("/chat", s.handleAPIChat)
			api.Get("/issues", s.handleAPIIssues)
			api.Post("/issues", s.handleAPICreateIssue)
			api.Get("/projects", s.handleAPIProjects)
			api.Post("/projects", s.handleAPICreateProject)
		})
	})

	return s
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusMovedPermanently)
	}
}

func (s *Server) sessionToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := s.Sess.GetString(r.Context(), sessionUserKey); id != "" {
			r = r.WithContext(appmw.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser loads the signed-in user's row. A session pointing at a deleted user is
// destroyed.
func (s *Server) currentUser(r *http.Request) (db.User, error) {
	id, err := uuid.Parse(appmw.UserID(r.Context()))
	if err != nil {
		return db.User{}, db.ErrNotFound
	}
	u, err := s.Q.GetUser(r.Context(), id)
	if db.IsNotFound(err) {
		_ = s.Sess.Destroy(r.Context())
	}
	return u, err
}

// requireUserRow is currentUser for page handlers: on failure it has already written
// the response.
func (s *Server) requireUserRow(w http.ResponseWriter, r *http.Request) (db.User, bool) {
	u, err := s.currentUser(r)
	if db.IsNotFound(err) {
		http.Redirect(w, r, appmw.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		return u, false
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("load current user")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return u, false
	}
	return u, true
}

func (s *Server) signIn(ctx context.Context, u db.User) error {
	if err := s.Sess.RenewToken(ctx); err != nil {
		return err
	}
	s.Sess.Put(ctx, sessionUserKey, u.ID.String())
	return nil
}

func owner(u db.User) threads.Owner {
	return threads.Owner{UserID: u.ID.String(), LobbyUserID: u.LobbyUserID.String}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render template failed")
	}
}
