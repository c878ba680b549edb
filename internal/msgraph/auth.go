package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/stopwatch/internal/config"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenFilePath returns where the Graph tokens are cached.
func TokenFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "auth", "msgraph_tokens.json"), nil
}

func oauth2Config(tenantID, clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(tenantID, "devicecode"),
			TokenURL:      msEndpoint(tenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken returns the cached token, or nil if none has been saved yet.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// savingTokenSource persists every token it hands out so refreshes survive
// the process.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			slog.Warn("could not save refreshed token", "err", err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// Authenticate returns a token source for Microsoft Graph. A cached token is
// reused (and refreshed) when possible; otherwise the device code flow is
// started and its instructions are written to prompt.
func Authenticate(ctx context.Context, tenantID, clientID string, prompt io.Writer) (oauth2.TokenSource, error) {
	path, err := TokenFilePath()
	if err != nil {
		return nil, err
	}
	return authenticate(ctx, oauth2Config(tenantID, clientID), path, prompt)
}

func authenticate(ctx context.Context, cfg *oauth2.Config, path string, prompt io.Writer) (oauth2.TokenSource, error) {
	tok, err := loadToken(path)
	if err != nil {
		slog.Warn("ignoring cached token", "err", err)
		tok = nil
	}

	if tok != nil && !tok.Valid() {
		tok = refresh(ctx, cfg, path, tok)
	}

	if tok == nil {
		if tok, err = deviceLogin(ctx, cfg, prompt); err != nil {
			return nil, err
		}
		if err := saveToken(path, tok); err != nil {
			slog.Warn("could not save token", "err", err)
		}
	}

	return &savingTokenSource{
		ts:   cfg.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}, nil
}

// refresh exchanges the refresh token of an expired tok. It returns nil when
// there is nothing to refresh with or the server refuses, so the caller signs
// in again.
func refresh(ctx context.Context, cfg *oauth2.Config, path string, tok *oauth2.Token) *oauth2.Token {
	if tok.RefreshToken == "" {
		return nil
	}
	refreshed, err := cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		slog.Warn("token refresh failed, re-authenticating", "err", err)
		return nil
	}
	if err := saveToken(path, refreshed); err != nil {
		slog.Warn("could not save refreshed token", "err", err)
	}
	return refreshed
}

func deviceLogin(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}
	fmt.Fprintln(prompt)
	fmt.Fprintln(prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(prompt)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	return tok, nil
}
