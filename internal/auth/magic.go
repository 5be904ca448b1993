package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadToken = errors.New("bad token")
	ErrExpired  = errors.New("expired")
)

const (
	purposeMagic = "magic"
	purposeState = "oauth-state"
)

type claims struct {
	Purpose  string `json:"pur"`
	Email    string `json:"email,omitempty"`
	Callback string `json:"cb,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and checks the short-lived HS256 tokens used for magic links and
// OAuth state.
type Signer struct {
	Secret []byte
	now    func() time.Time
}

func NewSigner(secret string) Signer {
	return Signer{Secret: []byte(secret)}
}

func (s Signer) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s Signer) sign(c claims, ttl time.Duration) (string, error) {
	now := s.clock()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
}

func (s Signer) parse(tok, purpose string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(tok, c, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if c.Purpose != purpose {
		return nil, ErrBadToken
	}
	return c, nil
}

// MagicLink builds passwordless sign-in links.
type MagicLink struct {
	Signer  Signer
	BaseURL string
}

// Sign returns a token for email carrying the post-login destination.
func (m MagicLink) Sign(email, callback string, ttl time.Duration) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrBadToken
	}
	return m.Signer.sign(claims{Purpose: purposeMagic, Email: email, Callback: callback}, ttl)
}

// Verify returns the email and callback from a token made by Sign.
func (m MagicLink) Verify(token string) (email, callback string, err error) {
	c, err := m.Signer.parse(token, purposeMagic)
	if err != nil {
		return "", "", err
	}
	if c.Email == "" {
		return "", "", ErrBadToken
	}
	return c.Email, SafeCallback(c.Callback), nil
}

// URL is the link mailed to the user.
func (m MagicLink) URL(email, callback string, ttl time.Duration) (string, error) {
	tok, err := m.Sign(email, callback, ttl)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(m.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = "/auth/magic/callback"
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// State signs the OAuth state parameter so the callback can trust callbackUrl.
func (s Signer) State(callback string, ttl time.Duration) (string, error) {
	return s.sign(claims{Purpose: purposeState, Callback: callback}, ttl)
}

// VerifyState returns the callback a state token was issued for.
func (s Signer) VerifyState(state string) (string, error) {
	c, err := s.parse(state, purposeState)
	if err != nil {
		return "", err
	}
	return SafeCallback(c.Callback), nil
}

// DefaultCallback is where users land after signing in.
const DefaultCallback = "/app"

// SafeCallback keeps only same-site absolute paths; anything else becomes
// DefaultCallback. Control characters are refused outright: browsers drop tabs and
// newlines from URLs, which would turn "/\t/host" into "//host".
func SafeCallback(cb string) string {
	if cb == "" || !strings.HasPrefix(cb, "/") || strings.HasPrefix(cb, "//") || strings.HasPrefix(cb, "/\\") {
		return DefaultCallback
	}
	if strings.IndexFunc(cb, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return DefaultCallback
	}
	u, err := url.Parse(cb)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultCallback
	}
	return cb
}
