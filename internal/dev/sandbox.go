package dev

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/playcast-gg/playcast-cli/internal/config"
)

// Query parameter names the sandbox page reads.
const (
	paramGameSubdomain = "gsdomain"
	paramEnvironment   = "genv"
	paramCloudID       = "gcid"
	paramSandbox       = "sandbox"
	paramLocalOrigin   = "localorigin"
	paramEngine        = "engine"
	paramEngineVersion = "engineversion"
	paramEntrypoint    = "entrypoint"
	paramRedirectURL   = "rdurl"
)

// BuildSandboxURL constructs the permission-grant link on the game's
// sandbox subdomain, wrapping the play URL that points the platform at
// the local HTTPS origin.
func BuildSandboxURL(cfg *config.ProjectConfig, siteHost, localOrigin string) (string, error) {
	base := strings.TrimRight(siteHost, "/")

	gameURL, err := url.Parse(fmt.Sprintf("%s/play/%s", base, cfg.Game))
	if err != nil {
		return "", fmt.Errorf("parse site host %s: %w", base, err)
	}
	query := gameURL.Query()
	query.Set(paramGameSubdomain, cfg.Game)
	query.Set(paramEnvironment, string(cfg.Environment))
	query.Set(paramCloudID, cfg.Org)
	query.Set(paramLocalOrigin, localOrigin)
	query.Set(paramSandbox, "true")
	query.Set(paramEngine, cfg.Engine.Kind.Label())
	query.Set(paramEngineVersion, cfg.Engine.Version)
	if cfg.Engine.Entrypoint != "" {
		query.Set(paramEntrypoint, cfg.Engine.Entrypoint)
	}
	gameURL.RawQuery = query.Encode()

	hostOnly := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	grantURL, err := url.Parse(fmt.Sprintf("https://%s.sandbox.%s/sandbox/permission-grant", cfg.Game, hostOnly))
	if err != nil {
		return "", err
	}
	grantQuery := grantURL.Query()
	grantQuery.Set(paramRedirectURL, gameURL.String())
	grantQuery.Set(paramLocalOrigin, localOrigin)
	grantURL.RawQuery = grantQuery.Encode()

	return grantURL.String(), nil
}
