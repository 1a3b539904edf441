// Package emitter renders a planned client project and writes it to disk.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Robbilie/openapi-generator/internal/csharp"
)

const (
	metadataDir  = ".openapi-generator"
	filesList    = metadataDir + "/FILES"
	versionFile  = metadataDir + "/VERSION"
	tempFileGlob = ".tmp-openapi-generator-*"
)

// Renderer expands a named template against a context stack.
type Renderer interface {
	Render(name string, data ...any) (string, error)
}

// Options controls where and how the project is written.
type Options struct {
	OutDir  string // required
	Version string // recorded in .openapi-generator/VERSION
	Force   bool   // write into a non-empty directory
	DryRun  bool   // plan only
	Logger  *slog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Emit renders every included file and writes the result below
// opts.OutDir. Render failures are collected so a single run reports all
// broken templates.
func Emit(ctx context.Context, files []csharp.FileSpec, r Renderer, opts Options) (*Result, error) {
	if r == nil {
		return nil, errors.New("emitter: nil renderer")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("emitter: OutDir is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("emitter: resolve output directory: %w", err)
	}
	if err := validateOutputDirectory(abs, opts.Force); err != nil {
		return nil, err
	}

	rendered := map[string][]byte{}
	var errs []error
	for _, f := range files {
		if !f.Include {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.Render(f.Template, f.Data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
			continue
		}
		rendered[path.Clean(f.Path)] = []byte(out)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("emitter: render: %w", errors.Join(errs...))
	}

	generated := make([]string, 0, len(rendered))
	for rel := range rendered {
		generated = append(generated, rel)
	}
	sort.Strings(generated)
	rendered[filesList] = []byte(strings.Join(generated, "\n") + "\n")
	if opts.Version != "" {
		rendered[versionFile] = []byte(opts.Version + "\n")
	}

	rels := make([]string, 0, len(rendered))
	for rel := range rendered {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(rendered[rel]), Mode: fileMode(rel)})
	}
	res := &Result{OutDir: abs, Planned: planned}
	if opts.DryRun {
		return res, nil
	}

	for _, pf := range planned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeFileAtomic(abs, pf.RelPath, rendered[pf.RelPath], pf.Mode); err != nil {
			return nil, fmt.Errorf("emitter: write file %s: %w", pf.RelPath, err)
		}
		log.Debug("wrote file", "path", pf.RelPath, "bytes", pf.Size)
	}
	log.Info("generated project", "dir", abs, "files", len(planned))
	return res, nil
}

func validateOutputDirectory(absPath string, force bool) error {
	stat, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory %q: %w", absPath, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("output path %q is not a directory", absPath)
	}
	if force {
		return nil
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("cannot read output directory %q: %w", absPath, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %q is not empty (use --force to overwrite)", absPath)
	}
	return nil
}

func fileMode(rel string) os.FileMode {
	if path.Ext(rel) == ".sh" {
		return 0o755
	}
	return 0o644
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(baseDir, relPath string, content []byte, mode os.FileMode) error {
	fullPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure target directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tempFileGlob)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	ok = true
	return nil
}
