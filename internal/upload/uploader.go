package upload

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of file transfers in flight at once.
const DefaultConcurrency = 10

// Uploader streams manifest entries to an ObjectStore with bounded
// concurrency. The first transfer failure stops new launches and is
// propagated; transfers already in flight drain on their own, so a few
// extra objects may still land remotely after a failed push.
type Uploader struct {
	Store       ObjectStore
	Concurrency int
	// OnProgress, when set, is called with the aggregate uploaded byte
	// count after each completed file. done never exceeds total.
	OnProgress func(done, total int64)
}

// Upload transfers every entry. No per-file retry, no partial-object
// cleanup: rerunning the push overwrites per-file.
func (u *Uploader) Upload(ctx context.Context, entries []Entry, totalBytes int64) error {
	if len(entries) == 0 {
		return ErrEmptyManifest
	}

	concurrency := u.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var uploaded atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, entry := range entries {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := u.uploadOne(egCtx, entry); err != nil {
				return err
			}
			// The counter moves by whole files. Concurrent adds can
			// momentarily race ahead of total on recount, so clamp.
			done := uploaded.Add(entry.SizeBytes)
			if done > totalBytes {
				done = totalBytes
			}
			if u.OnProgress != nil {
				u.OnProgress(done, totalBytes)
			}
			return nil
		})
	}

	return eg.Wait()
}

func (u *Uploader) uploadOne(ctx context.Context, entry Entry) error {
	file, err := os.Open(entry.LocalPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.LocalPath, err)
	}
	defer file.Close()

	if err := u.Store.Upload(ctx, entry.ObjectKey, file, entry.SizeBytes); err != nil {
		return fmt.Errorf("upload %s: %w", entry.ObjectKey, err)
	}
	return nil
}
