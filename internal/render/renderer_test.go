package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/Robbilie/openapi-generator/internal/csharp"
	"github.com/Robbilie/openapi-generator/internal/spec"
)

const petstore = `openapi: 3.0.0
info:
  title: Petstore
  description: A sample store
  version: "1.0.0"
servers:
  - url: https://petstore.example.com/v1
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pet]
      parameters:
        - in: query
          name: limit
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      operationId: addPet
      tags: [pet]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
components:
  schemas:
    Pet:
      type: object
      required: [name, petType]
      discriminator:
        propertyName: petType
      properties:
        color:
          type: string
          default: red
        name:
          type: string
        petType:
          type: string
        status:
          type: string
          enum: [available, sold]
    Cat:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          properties:
            indoor:
              type: boolean
    Kind:
      type: string
      enum: [cat, dog]
    PetOrKind:
      oneOf:
        - $ref: '#/components/schemas/Pet'
        - $ref: '#/components/schemas/Kind'
`

func plan(t *testing.T, library csharp.Library) []csharp.FileSpec {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(petstore))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	api, err := spec.BuildAPI(context.Background(), doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	opts := csharp.DefaultOptions()
	opts.Library = string(library)
	g, err := csharp.New(opts, nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	p, err := g.Process(api)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	return g.Plan(p)
}

func TestRenderPlannedFiles(t *testing.T) {
	t.Parallel()
	for _, lib := range []csharp.Library{csharp.RestSharp, csharp.HTTPClient} {
		t.Run(string(lib), func(t *testing.T) {
			t.Parallel()
			r, err := New(WithLibrary(string(lib)))
			if err != nil {
				t.Fatalf("new renderer: %v", err)
			}
			out := map[string]string{}
			for _, f := range plan(t, lib) {
				if !f.Include {
					continue
				}
				s, err := r.Render(f.Template, f.Data)
				if err != nil {
					t.Fatalf("render %s: %v", f.Path, err)
				}
				if strings.TrimSpace(s) == "" {
					t.Fatalf("render %s: empty output", f.Path)
				}
				out[f.Path] = s
			}

			cat := out["src/Org.OpenAPITools/Model/Cat.cs"]
			if !strings.Contains(cat, "public partial class Cat : Pet, IEquatable<Cat>") {
				t.Errorf("Cat model does not extend Pet:\n%s", cat)
			}
			if !strings.Contains(cat, " * Generated by: https://github.com/Robbilie/openapi-generator") {
				t.Errorf("Cat model is missing the header partial")
			}
			for _, want := range []string{
				`string Color = "red"`,
				`string PetType = "Cat"`,
				" : base(Color: Color, Name: Name, PetType: PetType, Status: Status)",
			} {
				if !strings.Contains(cat, want) {
					t.Errorf("Cat constructor is missing %q:\n%s", want, cat)
				}
			}
			if pet := out["src/Org.OpenAPITools/Model/Pet.cs"]; !strings.Contains(pet, `this.Color = Color ?? "red";`) {
				t.Errorf("Pet constructor does not apply the color default:\n%s", pet)
			}
			api := out["src/Org.OpenAPITools/Api/PetApi.cs"]
			for _, want := range []string{"public partial class PetApi : IPetApi", "ListPets(", "AddPet("} {
				if !strings.Contains(api, want) {
					t.Errorf("PetApi is missing %q", want)
				}
			}
			if strings.Contains(api, "&quot;") || strings.Contains(api, "&lt;") {
				t.Errorf("PetApi contains HTML escaped text")
			}
			project := out["src/Org.OpenAPITools/Org.OpenAPITools.csproj"]
			if got := strings.Contains(project, `Include="RestSharp"`); got != (lib == csharp.RestSharp) {
				t.Errorf("RestSharp package reference present = %v for %s", got, lib)
			}
		})
	}
}

func TestRenderWithoutLibraryMissesClient(t *testing.T) {
	t.Parallel()
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Render("ApiClient.mustache", map[string]any{})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	t.Parallel()
	r, err := New(WithLibrary("restsharp"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Render("nope.mustache")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	if !strings.Contains(err.Error(), "nope.mustache") {
		t.Fatalf("err = %v does not name the template", err)
	}
}

// overrides holds a user template dir followed by the expected output of
// each case.
const overrides = `
-- templates/partial_header.mustache --
// {{{appName}}}
-- templates/libraries/restsharp/Multimap.mustache --
{{>partial_header}}class Multimap {{{packageName}}}
-- templates/README.mustache --
{{#models}}{{#model}}{{{classname}}};{{/model}}{{/models}}
-- want/Multimap --
// Demo
class Multimap Acme.Client
-- want/README --
A;B;
`

func writeArchive(t *testing.T, ar *txtar.Archive, prefix string) (string, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	want := map[string]string{}
	for _, f := range ar.Files {
		if name, ok := strings.CutPrefix(f.Name, "want/"); ok {
			want[name] = string(f.Data)
			continue
		}
		rel, ok := strings.CutPrefix(f.Name, prefix)
		if !ok {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, want
}

func TestTemplateDirOverrides(t *testing.T) {
	t.Parallel()
	dir, want := writeArchive(t, txtar.Parse([]byte(overrides)), "templates/")
	r, err := New(WithLibrary("restsharp"), WithTemplateDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	data := map[string]any{
		"appName":     "Demo",
		"packageName": "Acme.Client",
		"models": []map[string]any{
			{"model": map[string]any{"classname": "A"}},
			{"model": map[string]any{"classname": "B"}},
		},
	}
	for _, tc := range []struct{ template, want string }{
		{"Multimap.mustache", "Multimap"},
		{"README.mustache", "README"},
	} {
		got, err := r.Render(tc.template, data)
		if err != nil {
			t.Fatalf("render %s: %v", tc.template, err)
		}
		if diff := cmp.Diff(want[tc.want], got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tc.template, diff)
		}
	}

	// templates missing from the user dir still come from the embedded set
	got, err := r.Render("gitignore.mustache", data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "[Bb]in/") {
		t.Errorf("embedded gitignore not used:\n%s", got)
	}
}

func TestWithTemplateDirRejectsFiles(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(WithTemplateDir(f)); err == nil {
		t.Fatal("expected error for a non directory template dir")
	}
	if _, err := New(WithTemplateDir(filepath.Join(t.TempDir(), "missing"))); err == nil {
		t.Fatal("expected error for a missing template dir")
	}
}
