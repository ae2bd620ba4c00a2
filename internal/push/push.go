// Package push sequences a build upload end to end: lock, resolve
// paths, mint temporary storage credentials, stage auxiliary files,
// upload the manifest, and mark the build complete. Every step is
// fail-fast; nothing in the pipeline retries.
package push

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/playcast-gg/playcast-cli/internal/api"
	"github.com/playcast-gg/playcast-cli/internal/config"
	"github.com/playcast-gg/playcast-cli/internal/lock"
	"github.com/playcast-gg/playcast-cli/internal/notify"
	"github.com/playcast-gg/playcast-cli/internal/stage"
	"github.com/playcast-gg/playcast-cli/internal/upload"
)

// BuildAPI is the slice of the control-plane client a push needs.
type BuildAPI interface {
	CreateTempCredentials(ctx context.Context, org, game, environment string, req api.TempCredentialsRequest) (*api.TempCredentials, error)
	UploadCompleted(ctx context.Context, org, game, environment, buildID string) error
}

// Pusher drives one build push.
type Pusher struct {
	Config   *config.ProjectConfig
	API      BuildAPI
	Log      zerolog.Logger
	Notifier notify.Notifier

	// Message is the optional -m build message.
	Message string
	// Concurrency overrides the uploader default when positive.
	Concurrency int
	// OnProgress receives aggregate uploaded bytes.
	OnProgress func(done, total int64)

	// NewStore builds the object store from minted credentials. Tests
	// substitute a fake; nil means the real storage endpoint.
	NewStore func(creds *api.TempCredentials) (upload.ObjectStore, error)
}

// Result reports what a successful push created.
type Result struct {
	BuildID    string
	Files      int
	TotalBytes int64
}

// Run executes the push. The staged files are removed on every exit
// path, and the completion call is never issued after a failed upload.
func (p *Pusher) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	var buildID string
	defer func() {
		if p.Notifier == nil {
			return
		}
		event := notify.Event{
			Type:        "build.push",
			Status:      statusFromErr(err),
			Org:         p.Config.Org,
			Game:        p.Config.Game,
			Environment: string(p.Config.Environment),
			BuildID:     buildID,
			Message:     p.Message,
			StartedAt:   start,
			EndedAt:     time.Now(),
			Duration:    time.Since(start).String(),
		}
		if err != nil {
			event.Error = err.Error()
		}
		if nerr := p.Notifier.Notify(context.Background(), event); nerr != nil {
			p.Log.Warn().Err(nerr).Msg("push notification failed")
		}
	}()

	guard, err := lock.Acquire(p.Config.Dir())
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	uploadDir := p.Config.ResolveUploadDir()
	if err := upload.VerifyDir(uploadDir); err != nil {
		return nil, err
	}

	req := api.TempCredentialsRequest{
		Engine:        string(p.Config.Engine.Kind),
		EngineVersion: p.Config.Engine.Version,
		Version:       p.Config.BuildVersion,
		Entrypoint:    p.Config.Engine.Entrypoint,
		Message:       p.Message,
	}
	creds, err := p.API.CreateTempCredentials(ctx, p.Config.Org, p.Config.Game, string(p.Config.Environment), req)
	if err != nil {
		return nil, fmt.Errorf("fetch upload credentials: %w", err)
	}
	buildID = creds.GameBuildID
	p.Log.Debug().
		Str("build_id", creds.GameBuildID).
		Str("bucket", creds.BucketName).
		Str("prefix", creds.R2KeyPrefix).
		Msg("temporary credentials issued")

	staging, err := stage.Prepare(p.Config, uploadDir)
	if err != nil {
		return nil, err
	}
	defer staging.Cleanup()

	entries, totalBytes, err := upload.BuildManifest(uploadDir, creds.R2KeyPrefix)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", upload.ErrEmptyManifest, uploadDir)
	}

	store, err := p.newStore(creds)
	if err != nil {
		return nil, err
	}

	uploader := &upload.Uploader{
		Store:       store,
		Concurrency: p.Concurrency,
		OnProgress:  p.OnProgress,
	}
	p.Log.Info().Int("files", len(entries)).Int64("bytes", totalBytes).Msg("uploading build")
	if err := uploader.Upload(ctx, entries, totalBytes); err != nil {
		return nil, err
	}

	if err := p.API.UploadCompleted(ctx, p.Config.Org, p.Config.Game, string(p.Config.Environment), creds.GameBuildID); err != nil {
		return nil, fmt.Errorf("notify upload complete: %w", err)
	}

	return &Result{BuildID: creds.GameBuildID, Files: len(entries), TotalBytes: totalBytes}, nil
}

func (p *Pusher) newStore(creds *api.TempCredentials) (upload.ObjectStore, error) {
	if p.NewStore != nil {
		return p.NewStore(creds)
	}
	return upload.NewR2Store(
		creds.Endpoint,
		creds.BucketName,
		creds.Credentials.AccessKeyID,
		creds.Credentials.SecretAccessKey,
		creds.Credentials.SessionToken,
	)
}

func statusFromErr(err error) string {
	if err == nil {
		return "success"
	}
	return "failed"
}
