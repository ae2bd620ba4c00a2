package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// InitOptions describe the file written by `playcast init`.
type InitOptions struct {
	Org         string
	Game        string
	Environment Environment
	Engine      EngineKind
}

// WriteInitial writes a fresh playcast.toml.
func WriteInitial(path string, opts InitOptions) error {
	var engine string
	switch opts.Engine {
	case EngineUnity:
		engine = "[unity]\nversion = \"6000.0\"\n"
	case EngineCustom:
		engine = "[custom]\nversion = \"1.0\"\nentrypoint = \"index.html\"\n"
	default:
		engine = "[godot]\nversion = \"4.3\"\n"
	}

	content := fmt.Sprintf(
		"org = %q\ngame = %q\nenvironment = %q\nupload_dir = \"./build\"\nversion = \"0.0.1\"\n\n%s",
		opts.Org, opts.Game, opts.Environment, engine,
	)
	return os.WriteFile(path, []byte(content), 0o644)
}

// SettableKeys are the top-level fields `config set` may rewrite.
var SettableKeys = []string{"org", "game", "environment", "version", "upload_dir"}

// SetField rewrites one top-level key in the config file, preserving
// the rest of the document, and returns the previous value. The key
// must already exist or be insertable before the first table.
func SetField(path, key, value string) (string, error) {
	if !settable(key) {
		return "", fmt.Errorf("unsupported key %q: supported keys: %s", key, strings.Join(SettableKeys, ", "))
	}
	switch key {
	case "version":
		if !ValidBuildVersion(value) {
			return "", fmt.Errorf("version must be major.minor.patch (e.g. 1.2.3)")
		}
	case "environment":
		if _, err := ParseEnvironment(value); err != nil {
			return "", err
		}
	default:
		if value == "" {
			return "", fmt.Errorf("%s must be non-empty", key)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	keyRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(key) + `\s*=\s*"?([^"]*)"?\s*$`)

	old := ""
	replaced := false
	firstTable := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if firstTable < 0 && strings.HasPrefix(trimmed, "[") {
			firstTable = i
		}
		if firstTable >= 0 {
			break
		}
		if m := keyRe.FindStringSubmatch(line); m != nil {
			old = m[1]
			lines[i] = fmt.Sprintf("%s = %q", key, value)
			replaced = true
			break
		}
	}

	if !replaced {
		entry := fmt.Sprintf("%s = %q", key, value)
		if firstTable < 0 {
			lines = append(lines, entry)
		} else {
			lines = append(lines[:firstTable], append([]string{entry}, lines[firstTable:]...)...)
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return old, nil
}

// BumpLevel selects which semver component `version bump` increments.
type BumpLevel string

const (
	BumpPatch BumpLevel = "patch"
	BumpMinor BumpLevel = "minor"
	BumpMajor BumpLevel = "major"
)

// BumpVersion increments the config's build version in place and
// returns the old and new values.
func BumpVersion(path string, level BumpLevel) (string, string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", "", err
	}
	if cfg.BuildVersion == "" {
		return "", "", fmt.Errorf("config has no version to bump")
	}

	parsed, err := goversion.NewVersion(cfg.BuildVersion)
	if err != nil {
		return "", "", fmt.Errorf("invalid version %q: %w", cfg.BuildVersion, err)
	}
	seg := parsed.Segments()

	var next string
	switch level {
	case BumpMajor:
		next = fmt.Sprintf("%d.0.0", seg[0]+1)
	case BumpMinor:
		next = fmt.Sprintf("%d.%d.0", seg[0], seg[1]+1)
	case BumpPatch:
		next = fmt.Sprintf("%d.%d.%d", seg[0], seg[1], seg[2]+1)
	default:
		return "", "", fmt.Errorf("unknown bump level %q", level)
	}

	if _, err := SetField(path, "version", next); err != nil {
		return "", "", err
	}
	return cfg.BuildVersion, next, nil
}

func settable(key string) bool {
	for _, k := range SettableKeys {
		if k == key {
			return true
		}
	}
	return false
}
