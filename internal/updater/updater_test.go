package updater

import (
	"context"
	"errors"
	"testing"
	"time"
)

type staticSource struct {
	version string
	err     error
}

func (s staticSource) LatestCLIVersion(ctx context.Context) (string, error) {
	return s.version, s.err
}

func TestCheckNowWritesCache(t *testing.T) {
	checker := &Checker{Dir: t.TempDir(), Source: staticSource{version: "99.0.0"}}

	latest, err := checker.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if latest != "99.0.0" {
		t.Fatalf("unexpected latest: %s", latest)
	}

	cache, err := checker.loadCache()
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if cache.LatestVersion != "99.0.0" {
		t.Fatalf("cached version %s", cache.LatestVersion)
	}
	if !cache.ShowNotification {
		t.Fatal("a newer release should arm the notification")
	}
	if cache.CheckCount != 1 {
		t.Fatalf("check count %d, want 1", cache.CheckCount)
	}
	if time.Since(cache.LastCheck) > time.Minute {
		t.Fatalf("stale last check: %s", cache.LastCheck)
	}
}

func TestCheckNowIncrementsCount(t *testing.T) {
	checker := &Checker{Dir: t.TempDir(), Source: staticSource{version: "99.0.0"}}
	for i := 0; i < 3; i++ {
		if _, err := checker.CheckNow(context.Background()); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	cache, err := checker.loadCache()
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if cache.CheckCount != 3 {
		t.Fatalf("check count %d, want 3", cache.CheckCount)
	}
}

func TestCheckNowSourceError(t *testing.T) {
	checker := &Checker{Dir: t.TempDir(), Source: staticSource{err: errors.New("offline")}}
	if _, err := checker.CheckNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := checker.loadCache(); err == nil {
		t.Fatal("failed check must not create a cache")
	}
}

func TestAcknowledge(t *testing.T) {
	checker := &Checker{Dir: t.TempDir(), Source: staticSource{version: "99.0.0"}}
	if _, err := checker.CheckNow(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	checker.Acknowledge()

	cache, err := checker.loadCache()
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if cache.ShowNotification {
		t.Fatal("acknowledge should disarm the notification")
	}
	if cache.LatestVersion != "99.0.0" {
		t.Fatalf("latest version lost: %s", cache.LatestVersion)
	}
}

func TestCheckInBackground(t *testing.T) {
	checker := &Checker{Dir: t.TempDir(), Source: staticSource{version: "99.0.0"}}

	wait := checker.CheckInBackground(context.Background())
	wait()

	cache, err := checker.loadCache()
	if err != nil {
		t.Fatalf("background check did not write cache: %v", err)
	}
	if cache.LatestVersion != "99.0.0" {
		t.Fatalf("cached version %s", cache.LatestVersion)
	}
}

func TestNewer(t *testing.T) {
	cases := []struct {
		candidate, current string
		want               bool
	}{
		{"1.2.4", "1.2.3", true},
		{"2.0.0", "1.9.9", true},
		{"1.2.3", "1.2.3", false},
		{"1.2.2", "1.2.3", false},
		{"garbage", "1.2.3", false},
		{"1.2.3", "dev", false},
	}
	for _, tc := range cases {
		if got := newer(tc.candidate, tc.current); got != tc.want {
			t.Fatalf("newer(%q, %q) = %v, want %v", tc.candidate, tc.current, got, tc.want)
		}
	}
}
