package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults are baked in at build time via -ldflags so staging and dev
// builds of the CLI talk to their own control plane.
var (
	DefaultAPIHost  = "https://api.playcast.gg"
	DefaultSiteHost = "https://playcast.gg"
)

// ConfigDir returns the per-user playcast directory, creating it with
// owner-only permissions if needed. PLAYCAST_CONFIG_DIR overrides the
// default location.
func ConfigDir() (string, error) {
	dir := os.Getenv("PLAYCAST_CONFIG_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, "playcast")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// APIHost returns the control-plane base URL.
func APIHost() string {
	return normalizeHost(os.Getenv("PLAYCAST_API_HOST"), DefaultAPIHost)
}

// SiteHost returns the website base URL used for browser login and
// sandbox links.
func SiteHost() string {
	return normalizeHost(os.Getenv("PLAYCAST_SITE_HOST"), DefaultSiteHost)
}

func normalizeHost(override, fallback string) string {
	host := override
	if host == "" {
		host = fallback
	}
	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
