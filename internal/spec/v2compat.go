package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

var v2Methods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "options": true, "head": true,
}

// preprocessV2ForCompatibility rewrites Swagger 2.0 operations that
// openapi2conv rejects:
//   - several body parameters are merged into one object-typed body parameter
//   - body parameters next to formData parameters become formData fields and
//     the operation consumes multipart/form-data
//
// On error the original bytes are returned with modified=false.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return data, false, nil
	}

	modified := false
	for _, pim := range paths {
		item, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range item {
			if !v2Methods[strings.ToLower(method)] {
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			if rewriteV2Operation(op) {
				modified = true
			}
		}
	}

	if !modified {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

// rewriteV2Operation applies the body/formData fixes to a single operation.
func rewriteV2Operation(op map[string]any) bool {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return false
	}
	bodyCount, hasFormData := 0, false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		switch {
		case pm == nil:
		case strings.EqualFold(asString(pm["in"]), "body"):
			bodyCount++
		case strings.EqualFold(asString(pm["in"]), "formData"):
			hasFormData = true
		}
	}

	switch {
	case bodyCount == 0:
		return false
	case hasFormData:
		out := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(asString(pm["in"]), "body") {
				pm = formDataFromBodyParam(pm)
			}
			out = append(out, pm)
		}
		op["parameters"] = out
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case bodyCount > 1:
		props := map[string]any{}
		var required []any
		rest := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil || !strings.EqualFold(asString(pm["in"]), "body") {
				rest = append(rest, p)
				continue
			}
			name := paramNameOr(pm, "field")
			schema := extractSchemaFromParam(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if rb, _ := pm["required"].(bool); rb {
				required = append(required, name)
			}
		}
		body := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			body["required"] = required
		}
		merged := map[string]any{"in": "body", "name": "body", "schema": body}
		op["parameters"] = append([]any{merged}, rest...)
		return true
	}
	return false
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func paramNameOr(pm map[string]any, fallback string) string {
	if name := asString(pm["name"]); name != "" {
		return name
	}
	return fallback
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

// extractSchemaFromParam returns the body schema, or one synthesized from
// the parameter's own type, items and format.
func extractSchemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t := asString(pm["type"])
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f := asString(pm["format"]); f != "" {
		m["format"] = f
	}
	return m
}

func formDataFromBodyParam(pm map[string]any) map[string]any {
	out := map[string]any{
		"in":   "formData",
		"name": paramNameOr(pm, "field"),
	}
	if desc := asString(pm["description"]); desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}

	src := pm
	if sch, ok := pm["schema"].(map[string]any); ok {
		src = sch
	}
	typ := asString(src["type"])
	if typ == "" {
		// referenced objects cannot be expressed as a form field
		typ = "string"
	}
	out["type"] = typ
	if it, ok := src["items"].(map[string]any); ok {
		out["items"] = it
	}
	if f := asString(src["format"]); f != "" {
		out["format"] = f
	}
	return out
}
