// Package updater keeps a file-backed cache of the latest released CLI
// version. The cache is read synchronously at startup; a background
// check refreshes it for the next run.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/playcast-gg/playcast-cli/internal/version"
)

const cacheFileName = "update-cache.json"

// Cache is the persisted state of the last update check.
type Cache struct {
	LatestVersion    string    `json:"latest_version"`
	LastCheck        time.Time `json:"last_check"`
	ShowNotification bool      `json:"show_notification"`
	CheckCount       int       `json:"check_count"`
}

// VersionSource fetches the latest published CLI version.
type VersionSource interface {
	LatestCLIVersion(ctx context.Context) (string, error)
}

// Checker owns the cache file and the background refresh.
type Checker struct {
	Dir    string
	Source VersionSource
}

func (c *Checker) cachePath() string { return filepath.Join(c.Dir, cacheFileName) }

func (c *Checker) loadCache() (*Cache, error) {
	data, err := os.ReadFile(c.cachePath())
	if err != nil {
		return nil, err
	}
	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

func (c *Checker) saveCache(cache *Cache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cachePath(), data, 0o644)
}

// MaybeNotify prints an upgrade hint when the cached latest version is
// newer than the running binary. Reads only the cache; never blocks on
// the network.
func (c *Checker) MaybeNotify() {
	cache, err := c.loadCache()
	if err != nil || !cache.ShowNotification {
		return
	}
	if newer(cache.LatestVersion, version.Version) {
		fmt.Printf("\nUpdate available: %s -> %s\nRun: playcast update\n\n", version.Version, cache.LatestVersion)
	}
}

// CheckInBackground refreshes the cache without blocking the command.
// The returned wait func joins the check before process exit.
func (c *Checker) CheckInBackground(ctx context.Context) (wait func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, _ = c.CheckNow(checkCtx)
	}()
	return func() { <-done }
}

// CheckNow queries the control plane and rewrites the cache. Returns
// the latest version string.
func (c *Checker) CheckNow(ctx context.Context) (string, error) {
	latest, err := c.Source.LatestCLIVersion(ctx)
	if err != nil {
		return "", err
	}

	count := 0
	if prev, err := c.loadCache(); err == nil {
		count = prev.CheckCount
	}
	cache := &Cache{
		LatestVersion:    latest,
		LastCheck:        time.Now().UTC(),
		ShowNotification: newer(latest, version.Version),
		CheckCount:       count + 1,
	}
	if err := c.saveCache(cache); err != nil {
		return latest, fmt.Errorf("write update cache: %w", err)
	}
	return latest, nil
}

// Acknowledge turns the startup notification off until a newer release
// appears.
func (c *Checker) Acknowledge() {
	if cache, err := c.loadCache(); err == nil {
		cache.ShowNotification = false
		_ = c.saveCache(cache)
	}
}

func newer(candidate, current string) bool {
	ca, err := goversion.NewVersion(candidate)
	if err != nil {
		return false
	}
	cu, err := goversion.NewVersion(current)
	if err != nil {
		return false
	}
	return ca.GreaterThan(cu)
}
