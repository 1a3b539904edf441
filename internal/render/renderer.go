// Package render expands the C# client templates. Templates are looked up
// in an optional user directory first and in the embedded set second; in
// both places a library specific copy under libraries/<lib>/ wins over the
// shared one.
package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/cbroglie/mustache"
)

//go:embed all:templates/csharp-netcore
var embedded embed.FS

const embeddedRoot = "templates/csharp-netcore"

// ErrTemplateNotFound is returned when no layer of the lookup chain has the
// requested template.
var ErrTemplateNotFound = errors.New("template not found")

type Renderer struct {
	library string
	layers  []fs.FS
}

type Option func(*Renderer) error

// WithLibrary selects the libraries/<lib>/ overrides.
func WithLibrary(lib string) Option {
	return func(r *Renderer) error {
		r.library = lib
		return nil
	}
}

// WithTemplateDir adds a user template directory checked before the
// embedded templates.
func WithTemplateDir(dir string) Option {
	return func(r *Renderer) error {
		if dir == "" {
			return nil
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("template dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("template dir %s is not a directory", dir)
		}
		r.layers = append([]fs.FS{os.DirFS(dir)}, r.layers...)
		return nil
	}
}

func New(opts ...Option) (*Renderer, error) {
	root, err := fs.Sub(embedded, embeddedRoot)
	if err != nil {
		return nil, err
	}
	r := &Renderer{layers: []fs.FS{root}}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Lookup returns the source of the named template.
func (r *Renderer) Lookup(name string) (string, error) {
	candidates := []string{name}
	if r.library != "" {
		candidates = []string{path.Join("libraries", r.library, name), name}
	}
	for _, layer := range r.layers {
		for _, c := range candidates {
			b, err := fs.ReadFile(layer, c)
			if err == nil {
				return string(b), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read template %s: %w", c, err)
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Get resolves a partial; it makes Renderer a mustache.PartialProvider.
func (r *Renderer) Get(name string) (string, error) {
	if !strings.HasSuffix(name, ".mustache") {
		name += ".mustache"
	}
	return r.Lookup(name)
}

// Render expands the named template against the context stack data.
func (r *Renderer) Render(name string, data ...any) (string, error) {
	src, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	out, err := mustache.RenderPartials(src, r, data...)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}
