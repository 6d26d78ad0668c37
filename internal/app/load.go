package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/millgrid/internal/casefile"
	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/fsutil"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/jobhcl"
	"github.com/zclconf/go-cty/cty"
)

// LoadJob reads the job at path, choosing the format by extension: .json is
// the wire document, .hcl the HCL authoring format, and .case or .txt the
// key=value case format. vars are only used by HCL files.
func LoadJob(ctx context.Context, path string, vars map[string]cty.Value) (*job.Job, error) {
	logger := ctxlog.FromContext(ctx)
	ext := strings.ToLower(filepath.Ext(path))
	logger.Debug("Loading job...", "path", path, "format", ext)

	switch ext {
	case ".json":
		return job.Load(path)
	case ".hcl":
		return jobhcl.Load(ctx, path, vars)
	case ".case", ".txt":
		return casefile.Load(path)
	default:
		return nil, fmt.Errorf("unsupported job file %s: expected .json, .hcl, .case or .txt", path)
	}
}

// LoadJobs loads every path in order and stops at the first failure.
func LoadJobs(ctx context.Context, paths []string, vars map[string]cty.Value) ([]*job.Job, error) {
	jobs := make([]*job.Job, 0, len(paths))
	for _, p := range paths {
		j, err := LoadJob(ctx, p, vars)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ExpandPaths replaces every directory in paths with the .json, .hcl and
// .case files found under it, in lexical order. Files are kept as given.
// A directory holding no job files is an error.
func ExpandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := fsutil.FindFilesByExtension(p, ".json", ".hcl", ".case")
		if err != nil {
			return nil, fmt.Errorf("failed to search %s for jobs: %w", p, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no job files found in %s", p)
		}
		out = append(out, found...)
	}
	return out, nil
}
