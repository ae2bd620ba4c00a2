package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestLoginHandlerAcceptsMatchingRedirect(t *testing.T) {
	done := make(chan loginOutcome, 1)
	server := httptest.NewServer(loginHandler("nonce-1", done))
	defer server.Close()

	resp, err := http.Get(server.URL + "/?" + url.Values{
		"state":   {"nonce-1"},
		"api_key": {"pk_live_abc"},
		"email":   {"dev@example.com"},
	}.Encode())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("unexpected error: %v", o.err)
		}
		if o.result.APIKey != "pk_live_abc" || o.result.Email != "dev@example.com" {
			t.Fatalf("unexpected result: %+v", o.result)
		}
	default:
		t.Fatal("expected an outcome")
	}
}

func TestLoginHandlerRejectsMismatchedState(t *testing.T) {
	done := make(chan loginOutcome, 1)
	server := httptest.NewServer(loginHandler("nonce-1", done))
	defer server.Close()

	resp, err := http.Get(server.URL + "/?state=wrong&api_key=pk_live_abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	body := readAll(t, resp)
	if strings.Contains(body, "Success") {
		t.Fatalf("mismatched redirect must not render success: %q", body)
	}

	select {
	case <-done:
		t.Fatal("mismatched state must not produce an outcome")
	default:
	}
}

func TestLoginHandlerErrorParam(t *testing.T) {
	done := make(chan loginOutcome, 1)
	server := httptest.NewServer(loginHandler("nonce-1", done))
	defer server.Close()

	resp, err := http.Get(server.URL + "/?error=access_denied")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if strings.Contains(readAll(t, resp), "Success") {
		t.Fatal("failed redirect must not render success")
	}

	select {
	case o := <-done:
		if o.err == nil || !strings.Contains(o.err.Error(), "access_denied") {
			t.Fatalf("expected access_denied error, got %v", o.err)
		}
	default:
		t.Fatal("expected an error outcome")
	}
}

func TestLoginHandlerMissingAPIKey(t *testing.T) {
	done := make(chan loginOutcome, 1)
	server := httptest.NewServer(loginHandler("nonce-1", done))
	defer server.Close()

	resp, err := http.Get(server.URL + "/?state=nonce-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	select {
	case <-done:
		t.Fatal("redirect without api_key must not produce an outcome")
	default:
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
