package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/millgrid/internal/ctxlog"
)

// Fetch returns the content of one artifact of a finished run.
//
// In Persistent mode artifacts can be fetched repeatedly. In Ephemeral mode
// every artifact is deleted once it has been served, and the run directory
// goes with the last one; a second fetch of the same file yields
// ErrArtifactNotFound.
func (o *Orchestrator) Fetch(ctx context.Context, runID, fileName string) ([]byte, error) {
	if !validRunID(runID) {
		return nil, ErrInvalidRunID
	}
	if fileName == "" || Sanitize(fileName, "") != fileName {
		return nil, ErrArtifactNotFound
	}
	logger := ctxlog.FromContext(ctx).With("run_id", runID, "file", fileName)

	if o.opts.Delivery == Ephemeral {
		o.fetchMu.Lock()
		defer o.fetchMu.Unlock()
	}

	runDir, err := o.findRun(runID)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(runDir, fileName)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, &IOError{Op: "read artifact", Path: p, Err: err}
	}

	if o.opts.Delivery == Ephemeral {
		if err := os.Remove(p); err != nil {
			logger.Warn("Could not delete served artifact.", "error", err)
		}
		entries, err := os.ReadDir(runDir)
		if err == nil && len(entries) == 0 {
			if err := os.Remove(runDir); err != nil {
				logger.Warn("Could not remove drained run directory.", "error", err)
			} else {
				logger.Debug("🏁 Run directory drained and removed.", "dir", runDir)
			}
		}
	}
	logger.Debug("Artifact served.", "bytes", len(data), "delivery", o.opts.Delivery)
	return data, nil
}

// findRun locates the directory of runID under any output directory. The
// output root is listed rather than globbed so that its path may contain any
// character.
func (o *Orchestrator) findRun(runID string) (string, error) {
	entries, err := os.ReadDir(o.opts.OutputRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrArtifactNotFound
	}
	if err != nil {
		return "", &IOError{Op: "find run", Path: o.opts.OutputRoot, Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(o.opts.OutputRoot, e.Name(), runID)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", ErrArtifactNotFound
}
