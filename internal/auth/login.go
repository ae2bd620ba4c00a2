package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
)

// LoginResult is what the website hands back through the loopback
// redirect.
type LoginResult struct {
	APIKey string
	Email  string
}

type loginOutcome struct {
	result *LoginResult
	err    error
}

// loginHandler accepts the website's redirect. The body is written
// only after validation so a failed or foreign redirect never shows a
// success page.
func loginHandler(state string, done chan<- loginOutcome) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if errMsg := query.Get("error"); errMsg != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Authentication failed. Return to the terminal and try again.")
			done <- loginOutcome{err: fmt.Errorf("authentication failed: %s", errMsg)}
			return
		}
		if query.Get("state") != state || query.Get("api_key") == "" {
			// Not our redirect; keep waiting.
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Invalid authentication redirect.")
			return
		}

		fmt.Fprintln(w, "Success! You can close this window.")
		done <- loginOutcome{result: &LoginResult{
			APIKey: query.Get("api_key"),
			Email:  query.Get("email"),
		}}
	})
}

// LoginWithBrowser runs the browser-redirect login flow: bind an
// ephemeral loopback port, open the website's CLI auth page, and wait
// for it to redirect back with the API key and our state nonce.
func LoginWithBrowser(ctx context.Context, siteHost string) (*LoginResult, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("bind loopback listener: %w", err)
	}
	defer listener.Close()

	state := uuid.NewString()
	redirectURI := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)

	authURL := fmt.Sprintf(
		"%s/developers/cli/auth?redirect_uri=%s&state=%s",
		siteHost, url.QueryEscape(redirectURI), url.QueryEscape(state),
	)

	fmt.Println("Opening browser for authentication...")
	if err := browser.OpenURL(authURL); err != nil {
		fmt.Printf("Could not open a browser. Visit:\n%s\n", authURL)
	}
	fmt.Println("Waiting for authorization...")

	done := make(chan loginOutcome, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           loginHandler(state, done),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer server.Close()

	select {
	case o := <-done:
		return o.result, o.err
	case err := <-serveErr:
		return nil, fmt.Errorf("loopback server stopped: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
