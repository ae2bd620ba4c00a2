// Package dev serves a local HTTPS preview of a build for sandboxed
// testing on the platform site.
package dev

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/playcast-gg/playcast-cli/internal/config"
	"github.com/playcast-gg/playcast-cli/internal/lock"
	"github.com/playcast-gg/playcast-cli/internal/stage"
)

// Origins the sandbox page may load assets from.
var allowedDomains = []string{"playcast.gg", "playcast.lvh.me"}

// Server hosts the upload directory over local HTTPS.
type Server struct {
	Config    *config.ProjectConfig
	ConfigDir string // playcast config dir holding certs
	SiteHost  string
	Log       zerolog.Logger
	NoOpen    bool
}

// Run serves until the context is cancelled or an interrupt arrives.
// Staged files are cleaned up on every exit path.
func (s *Server) Run(ctx context.Context) error {
	guard, err := lock.Acquire(s.Config.Dir())
	if err != nil {
		return err
	}
	defer guard.Release()

	uploadDir := s.Config.ResolveUploadDir()
	info, err := os.Stat(uploadDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("upload directory does not exist or is not a directory: %s", uploadDir)
	}

	if s.Config.Engine.Kind != config.EngineCustom {
		if _, err := locateHTMLEntrypoint(uploadDir); err != nil {
			return fmt.Errorf("%s builds need an HTML entrypoint: %w", s.Config.Engine.Kind.Label(), err)
		}
	}

	staging, err := stage.Prepare(s.Config, uploadDir)
	if err != nil {
		return err
	}
	defer staging.Cleanup()

	cert, certPath, _, err := LoadOrCreateCertificate(s.ConfigDir)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("bind preview listener: %w", err)
	}
	localOrigin := fmt.Sprintf("https://localhost:%d", listener.Addr().(*net.TCPAddr).Port)

	sandboxURL, err := BuildSandboxURL(s.Config, s.SiteHost, localOrigin)
	if err != nil {
		return err
	}

	handler := gzhttp.GzipHandler(s.middleware(http.FileServer(http.Dir(uploadDir))))
	server := &http.Server{
		Handler:   handler,
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
	}

	fmt.Printf("Serving assets from %s\n", uploadDir)
	fmt.Printf("TLS certificate: %s\n", certPath)
	fmt.Printf("Local HTTPS origin: %s\n", localOrigin)
	fmt.Printf("Sandbox link:\n%s\n", sandboxURL)
	fmt.Println("Press Ctrl+C to stop the server.")

	if !s.NoOpen {
		if err := browser.OpenURL(sandboxURL); err != nil {
			s.Log.Debug().Err(err).Msg("could not open browser")
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ServeTLS(listener, "", "")
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down dev server...")
		_ = server.Shutdown(context.Background())
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// middleware applies the sandbox header contract: CORS allow-list,
// cross-origin resource policy, and Content-Encoding rewriting for
// precompressed assets.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Vary", "Origin")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		applyPrecompressedHeaders(w, r.URL.Path)

		next.ServeHTTP(w, r)
		s.Log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
	})
}

// applyPrecompressedHeaders marks .gz/.br build assets so the browser
// decodes them, with the content type of the underlying file.
func applyPrecompressedHeaders(w http.ResponseWriter, path string) {
	encodings := map[string]string{".gz": "gzip", ".br": "br"}
	for suffix, encoding := range encodings {
		if !strings.HasSuffix(path, suffix) {
			continue
		}
		w.Header().Set("Content-Encoding", encoding)
		stripped := strings.TrimSuffix(path, suffix)
		contentType := mime.TypeByExtension(filepath.Ext(stripped))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		return
	}
}

func originAllowed(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	host := parsed.Hostname()
	for _, domain := range allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// locateHTMLEntrypoint prefers index.html at the root, then any .html
// file in the tree.
func locateHTMLEntrypoint(uploadDir string) (string, error) {
	index := filepath.Join(uploadDir, "index.html")
	if info, err := os.Stat(index); err == nil && info.Mode().IsRegular() {
		return index, nil
	}

	var found string
	_ = filepath.WalkDir(uploadDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".html") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found == "" {
		return "", fmt.Errorf("no HTML file found in %s", uploadDir)
	}
	return found, nil
}
