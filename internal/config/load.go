package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"
)

// DefaultFileName is the project config looked for in the working
// directory when -c is not given.
const DefaultFileName = "playcast.toml"

var (
	ErrConfigNotFound = errors.New("config file not found")

	semverRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

type engineSection struct {
	Version    string `mapstructure:"version"`
	Entrypoint string `mapstructure:"entrypoint"`
}

type rawConfig struct {
	Org         string `mapstructure:"org"`
	Game        string `mapstructure:"game"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	UploadDir   string `mapstructure:"upload_dir"`

	// Legacy field names from early project files.
	OrgSlug    string `mapstructure:"org_slug"`
	GameSlug   string `mapstructure:"game_slug"`
	BranchSlug string `mapstructure:"branch_slug"`

	Godot  *engineSection `mapstructure:"godot"`
	Unity  *engineSection `mapstructure:"unity"`
	Custom *engineSection `mapstructure:"custom"`

	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// Load reads and validates a project config file.
func Load(path string) (*ProjectConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	vp := viper.New()
	vp.SetConfigFile(abs)
	vp.SetConfigType("toml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	var raw rawConfig
	if err := vp.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.path = abs
	return cfg, nil
}

func fromRaw(raw rawConfig) (*ProjectConfig, error) {
	cfg := &ProjectConfig{
		Org:          raw.Org,
		Game:         raw.Game,
		BuildVersion: raw.Version,
		UploadDir:    raw.UploadDir,
		Notify:       raw.Notifications,
	}

	if cfg.Org == "" && raw.OrgSlug != "" {
		deprecated("org_slug", "org")
		cfg.Org = raw.OrgSlug
	}
	if cfg.Game == "" && raw.GameSlug != "" {
		deprecated("game_slug", "game")
		cfg.Game = raw.GameSlug
	}

	if cfg.Org == "" {
		return nil, errors.New("org is required")
	}
	if cfg.Game == "" {
		return nil, errors.New("game is required")
	}
	if cfg.UploadDir == "" {
		return nil, errors.New("upload_dir is required")
	}

	switch {
	case raw.Environment != "":
		env, err := ParseEnvironment(raw.Environment)
		if err != nil {
			return nil, err
		}
		cfg.Environment = env
	case raw.BranchSlug != "":
		deprecated("branch_slug", "environment")
		env, err := environmentFromBranch(raw.BranchSlug)
		if err != nil {
			return nil, err
		}
		cfg.Environment = env
	default:
		return nil, errors.New("environment is required")
	}

	if cfg.BuildVersion != "" && !semverRe.MatchString(cfg.BuildVersion) {
		return nil, fmt.Errorf("invalid version %q: must be major.minor.patch (e.g. 1.0.0)", cfg.BuildVersion)
	}

	engine, err := engineFromRaw(raw)
	if err != nil {
		return nil, err
	}
	cfg.Engine = engine

	return cfg, nil
}

func engineFromRaw(raw rawConfig) (Engine, error) {
	count := 0
	for _, s := range []*engineSection{raw.Godot, raw.Unity, raw.Custom} {
		if s != nil {
			count++
		}
	}
	if count != 1 {
		return Engine{}, errors.New("config must have exactly one of [godot], [unity], or [custom]")
	}

	switch {
	case raw.Godot != nil:
		if raw.Godot.Version == "" {
			return Engine{}, errors.New("[godot] requires version")
		}
		return Engine{Kind: EngineGodot, Version: raw.Godot.Version}, nil
	case raw.Unity != nil:
		if raw.Unity.Version == "" {
			return Engine{}, errors.New("[unity] requires version")
		}
		return Engine{Kind: EngineUnity, Version: raw.Unity.Version}, nil
	default:
		if raw.Custom.Version == "" {
			return Engine{}, errors.New("[custom] requires version")
		}
		if raw.Custom.Entrypoint == "" {
			return Engine{}, errors.New("[custom] requires entrypoint")
		}
		return Engine{Kind: EngineCustom, Version: raw.Custom.Version, Entrypoint: raw.Custom.Entrypoint}, nil
	}
}

// ValidBuildVersion reports whether v is an acceptable build version.
func ValidBuildVersion(v string) bool {
	return semverRe.MatchString(v)
}

func deprecated(old, current string) {
	fmt.Fprintf(os.Stdout, "Warning: %q is deprecated, use %q\n", old, current)
}
