// Package stage temporarily copies auxiliary files into the upload
// directory so the uploaded artifact set is self-describing.
package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/playcast-gg/playcast-cli/internal/config"
)

// Staging tracks which files and parent directories were created so
// Cleanup removes exactly those and nothing else.
type Staging struct {
	copied []string
	dirs   []string // created parents, deepest first
}

// Prepare copies the project config (and, for custom engines, the
// entrypoint) into uploadDir unless the file is already there.
func Prepare(cfg *config.ProjectConfig, uploadDir string) (*Staging, error) {
	s := &Staging{}

	configDest := filepath.Join(uploadDir, config.DefaultFileName)
	if !samePath(cfg.Path(), configDest) {
		if err := s.stageFile(cfg.Path(), configDest); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("stage config: %w", err)
		}
	}

	if cfg.Engine.Kind == config.EngineCustom {
		source := filepath.Join(cfg.Dir(), cfg.Engine.Entrypoint)
		dest := filepath.Join(uploadDir, cfg.Engine.Entrypoint)
		if !samePath(source, dest) {
			if err := s.stageFile(source, dest); err != nil {
				s.Cleanup()
				return nil, fmt.Errorf("stage entrypoint: %w", err)
			}
		}
	}

	return s, nil
}

func (s *Staging) stageFile(src, dst string) error {
	created, err := makeParents(filepath.Dir(dst))
	if err != nil {
		return err
	}
	s.dirs = append(s.dirs, created...)
	if err := copyFile(src, dst); err != nil {
		return err
	}
	s.copied = append(s.copied, dst)
	return nil
}

// makeParents creates the missing ancestors of dir and returns them
// deepest first, so Cleanup can remove them in order.
func makeParents(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return missing, nil
}

// Cleanup deletes the staged copies and any directories staging
// created, when empty. It runs on every exit path, success or failure,
// and is safe to call more than once.
func (s *Staging) Cleanup() {
	if s == nil {
		return
	}
	for _, path := range s.copied {
		_ = os.Remove(path)
	}
	s.copied = nil
	for _, dir := range s.dirs {
		// Fails when the build placed files there; those stay.
		_ = os.Remove(dir)
	}
	s.dirs = nil
}

func samePath(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		ra = filepath.Clean(a)
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		rb = filepath.Clean(b)
	}
	return ra == rb
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Remove a stale copy first; on Windows an existing read-only file
	// makes the create fail.
	_ = os.Remove(dst)

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
