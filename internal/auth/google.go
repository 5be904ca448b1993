package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const GoogleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProfile is the subset of the OpenID userinfo response Argus stores.
type GoogleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleConfig returns the OAuth client for Google sign-in.
func GoogleConfig(clientID, clientSecret, baseURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoints.Google,
	}
}

// FetchGoogleProfile calls the userinfo endpoint with an authorized client.
func FetchGoogleProfile(ctx context.Context, client *http.Client, userinfoURL string) (GoogleProfile, error) {
	var p GoogleProfile
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return p, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return p, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return p, fmt.Errorf("google userinfo: %s: %s", resp.Status, b)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, fmt.Errorf("google userinfo: %w", err)
	}
	if p.Sub == "" || p.Email == "" {
		return p, errors.New("google userinfo: missing subject or email")
	}
	if !p.EmailVerified {
		return p, errors.New("google userinfo: email not verified")
	}
	return p, nil
}
