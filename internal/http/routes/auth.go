package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/argushq/argus/internal/auth"
	"github.com/argushq/argus/internal/db"
	appmw "github.com/argushq/argus/internal/http/middleware"
)

const (
	magicLinkTTL = 15 * time.Minute
	stateTTL     = 10 * time.Minute
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", map[string]any{
		"Title":    "Argus",
		"SignedIn": appmw.UserID(r.Context()) != "",
	})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "pricing", map[string]any{"Title": "Pricing"})
}

func (s *Server) loginData(r *http.Request, title, errMsg string) map[string]any {
	cb := r.FormValue("callbackUrl")
	return map[string]any{
		"Title":       title,
		"CallbackURL": auth.SafeCallback(cb),
		"Google":      s.Google != nil,
		"Error":       errMsg,
		"Email":       r.FormValue("email"),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", s.loginData(r, "Sign in", r.URL.Query().Get("error")))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", s.loginData(r, "Create account", ""))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	addr, err := auth.NormalizeEmail(r.Form.Get("email"))
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "login", s.loginData(r, "Sign in", err.Error()))
		return
	}
	u, err := s.Q.GetUserByEmail(r.Context(), addr)
	if err != nil && !db.IsNotFound(err) {
		hlog.FromRequest(r).Error().Err(err).Msg("sign-in lookup failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err != nil || auth.CheckPassword(u.PasswordHash.String, r.Form.Get("password")) != nil {
		s.renderStatus(w, r, http.StatusUnauthorized, "login", s.loginData(r, "Sign in", auth.ErrWrongCredentials.Error()))
		return
	}
	s.finishSignIn(w, r, u, r.Form.Get("callbackUrl"))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	addr, err := auth.NormalizeEmail(r.Form.Get("email"))
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "signup", s.loginData(r, "Create account", err.Error()))
		return
	}
	hash, err := auth.HashPassword(r.Form.Get("password"))
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "signup", s.loginData(r, "Create account", err.Error()))
		return
	}
	name := strings.TrimSpace(r.Form.Get("name"))
	u, err := s.Q.CreateUser(r.Context(), db.CreateUserParams{
		Email:        addr,
		Name:         pgtype.Text{String: name, Valid: name != ""},
		PasswordHash: pgtype.Text{String: hash, Valid: true},
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		s.renderStatus(w, r, http.StatusConflict, "signup", s.loginData(r, "Create account", "An account with this email already exists."))
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create user failed")
		http.Error(w, "could not create account", http.StatusInternalServerError)
		return
	}
	s.finishSignIn(w, r, u, r.Form.Get("callbackUrl"))
}

func (s *Server) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	addr, err := auth.NormalizeEmail(r.Form.Get("email"))
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "login", s.loginData(r, "Sign in", err.Error()))
		return
	}
	link, err := s.Magic.URL(addr, auth.SafeCallback(r.Form.Get("callbackUrl")), magicLinkTTL)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign magic link failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	html := `<p>Click the link below to sign in to Argus. It expires in 15 minutes.</p>` +
		`<p><a href="` + link + `">Sign in to Argus</a></p>`
	if err := s.Email.Send(addr, "Your Argus sign-in link", html); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("to", addr).Msg("send magic link failed")
		s.renderStatus(w, r, http.StatusBadGateway, "login", s.loginData(r, "Sign in", "We could not send the email. Try again shortly."))
		return
	}
	s.render(w, r, "magic_sent", map[string]any{"Title": "Check your email", "Email": addr})
}

func (s *Server) handleMagicCallback(w http.ResponseWriter, r *http.Request) {
	addr, cb, err := s.Magic.Verify(r.URL.Query().Get("token"))
	if err != nil {
		hlog.FromRequest(r).Info().Err(err).Msg("magic link rejected")
		http.Redirect(w, r, "/login?error="+loginErr(err), http.StatusSeeOther)
		return
	}
	u, err := s.Q.EnsureUserByEmail(r.Context(), addr)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("ensure user failed")
		http.Error(w, "could not sign in", http.StatusInternalServerError)
		return
	}
	s.finishSignIn(w, r, u, cb)
}

func loginErr(err error) string {
	if errors.Is(err, auth.ErrExpired) {
		return "link+expired"
	}
	return "invalid+link"
}

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		http.NotFound(w, r)
		return
	}
	state, err := s.Signer.State(auth.SafeCallback(r.URL.Query().Get("callbackUrl")), stateTTL)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign oauth state failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, s.Google.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		http.NotFound(w, r)
		return
	}
	cb, err := s.Signer.VerifyState(r.URL.Query().Get("state"))
	if err != nil {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	tok, err := s.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("google token exchange failed")
		http.Error(w, "could not exchange token", http.StatusBadGateway)
		return
	}
	p, err := auth.FetchGoogleProfile(r.Context(), s.Google.Client(r.Context(), tok), s.googleUserinfoURL)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("google profile failed")
		http.Error(w, "could not load google profile", http.StatusBadGateway)
		return
	}
	u, err := s.Q.UpsertGoogleUser(r.Context(), db.UpsertGoogleUserParams{
		Email:     p.Email,
		Name:      pgtype.Text{String: p.Name, Valid: p.Name != ""},
		Image:     pgtype.Text{String: p.Picture, Valid: p.Picture != ""},
		GoogleSub: pgtype.Text{String: p.Sub, Valid: true},
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("upsert google user failed")
		http.Error(w, "could not sign in", http.StatusInternalServerError)
		return
	}
	s.finishSignIn(w, r, u, cb)
}

func (s *Server) finishSignIn(w http.ResponseWriter, r *http.Request, u db.User, callback string) {
	if err := s.signIn(r.Context(), u); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("renew session failed")
		http.Error(w, "could not sign in", http.StatusInternalServerError)
		return
	}
	hlog.FromRequest(r).Info().Str("user_id", u.ID.String()).Msg("signed in")
	http.Redirect(w, r, auth.SafeCallback(callback), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := appmw.UserID(r.Context()); id != "" && s.Threads != nil {
		s.Threads.Forget(id)
	}
	if err := s.Sess.Destroy(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("destroy session failed")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
