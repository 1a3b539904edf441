package emitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/Robbilie/openapi-generator/internal/csharp"
)

// fakeRenderer prints the template name and the "name" key of the context.
type fakeRenderer struct {
	fail map[string]bool
}

func (f fakeRenderer) Render(name string, data ...any) (string, error) {
	if f.fail[name] {
		return "", fmt.Errorf("broken %s", name)
	}
	var v any
	if len(data) > 0 {
		if m, ok := data[0].(map[string]any); ok {
			v = m["name"]
		}
	}
	return fmt.Sprintf("%s %v\n", name, v), nil
}

func sampleFiles() []csharp.FileSpec {
	return []csharp.FileSpec{
		{Template: "model.mustache", Path: "src/Acme/Model/Pet.cs", Data: map[string]any{"name": "Pet"}, Include: true},
		{Template: "api.mustache", Path: "src/Acme/Api/PetApi.cs", Data: map[string]any{"name": "PetApi"}, Include: true},
		{Template: "model_test.mustache", Path: "src/Acme.Test/Model/PetTests.cs", Data: map[string]any{"name": "Pet"}, Include: false},
		{Template: "git_push.sh.mustache", Path: "git_push.sh", Data: map[string]any{}, Include: true},
	}
}

const wantTree = `
-- .openapi-generator/FILES --
git_push.sh
src/Acme/Api/PetApi.cs
src/Acme/Model/Pet.cs
-- .openapi-generator/VERSION --
1.2.3
-- git_push.sh --
git_push.sh.mustache <nil>
-- src/Acme/Api/PetApi.cs --
api.mustache PetApi
-- src/Acme/Model/Pet.cs --
model.mustache Pet
`

// readTree archives every regular file below dir.
func readTree(t *testing.T, dir string) *txtar.Archive {
	t.Helper()
	ar := &txtar.Archive{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		ar.Files = append(ar.Files, txtar.File{Name: filepath.ToSlash(rel), Data: b})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return ar
}

func TestEmit_WritesTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), sampleFiles(), fakeRenderer{}, Options{OutDir: dir, Version: "1.2.3"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Planned) != 5 {
		t.Fatalf("planned %d files, want 5", len(res.Planned))
	}
	want := string(txtar.Format(txtar.Parse([]byte(wantTree))))
	got := string(txtar.Format(readTree(t, dir)))
	if diff := cmp.Diff(strings.TrimLeft(want, "\n"), got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_DryRunPlansOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), sampleFiles(), fakeRenderer{}, Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := []PlannedFile{
		{RelPath: ".openapi-generator/FILES", Size: len("git_push.sh\nsrc/Acme/Api/PetApi.cs\nsrc/Acme/Model/Pet.cs\n"), Mode: 0o644},
		{RelPath: "git_push.sh", Size: len("git_push.sh.mustache <nil>\n"), Mode: 0o755},
		{RelPath: "src/Acme/Api/PetApi.cs", Size: len("api.mustache PetApi\n"), Mode: 0o644},
		{RelPath: "src/Acme/Model/Pet.cs", Size: len("model.mustache Pet\n"), Mode: 0o644},
	}
	if diff := cmp.Diff(want, res.Planned); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("dry run wrote %d entries", len(entries))
	}
}

func TestEmit_ExecutableScript(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	dir := t.TempDir()
	if _, err := Emit(context.Background(), sampleFiles(), fakeRenderer{}, Options{OutDir: dir}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "git_push.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("git_push.sh mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestEmit_NonEmptyDirNeedsForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Emit(context.Background(), sampleFiles(), fakeRenderer{}, Options{OutDir: dir})
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("err = %v, want not empty error", err)
	}
	if _, err := Emit(context.Background(), sampleFiles(), fakeRenderer{}, Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("forced emit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("existing file removed: %v", err)
	}
}

func TestEmit_CollectsRenderErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := fakeRenderer{fail: map[string]bool{"model.mustache": true, "api.mustache": true}}
	_, err := Emit(context.Background(), sampleFiles(), r, Options{OutDir: dir})
	if err == nil {
		t.Fatal("expected render error")
	}
	for _, want := range []string{"src/Acme/Model/Pet.cs: broken model.mustache", "src/Acme/Api/PetApi.cs: broken api.mustache"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("failed render wrote %d entries", len(entries))
	}
}

func TestEmit_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Emit(ctx, sampleFiles(), fakeRenderer{}, Options{OutDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestEmit_RequiresOutDir(t *testing.T) {
	t.Parallel()
	if _, err := Emit(context.Background(), nil, fakeRenderer{}, Options{}); err == nil {
		t.Fatal("expected error without OutDir")
	}
	if _, err := Emit(context.Background(), nil, nil, Options{OutDir: t.TempDir()}); err == nil {
		t.Fatal("expected error without renderer")
	}
}
