package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"auracast/internal/services/api/docs"
)

// docReader renders the registered document
var docReader = docs.SwaggerInfo.ReadDoc

var errorSchema = map[string]any{
	"type":     "object",
	"required": []any{"status_code", "status"},
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer"},
		"kind":        map[string]any{"type": "string", "example": "shape_mismatch"},
		"error":       map[string]any{"type": "string"},
		"field":       map[string]any{"type": "string"},
		"retryable":   map[string]any{"type": "boolean"},
		"request_id":  map[string]any{"type": "string"},
	},
}

// every operation can fail these ways even when its annotations do not say so
var defaultErrors = map[string]map[string]any{
	"400": {"status_code": 400, "status": "Bad Request", "code": 7, "kind": "json", "error": "invalid JSON: unexpected EOF"},
	"500": {"status_code": 500, "status": "Internal Server Error", "code": 1, "kind": "panic", "error": "internal error"},
}

func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

// decorate pins the document to what the bundled swagger UI renders and fills in shared errors
func decorate(spec map[string]any, base, titleSuffix string) {
	delete(spec, "swagger")
	if v, _ := spec["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": base}}
	}
	if titleSuffix != "" {
		info := child(spec, "info")
		title, _ := info["title"].(string)
		info["title"] = strings.TrimSpace(title + " " + titleSuffix)
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = errorSchema
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		ops, _ := p.(map[string]any)
		for _, op := range ops {
			o, ok := op.(map[string]any)
			if !ok {
				continue
			}
			responses := child(o, "responses")
			for status, example := range defaultErrors {
				if _, ok := responses[status]; ok {
					continue
				}
				responses[status] = map[string]any{
					"description": http.StatusText(example["status_code"].(int)),
					"content": map[string]any{"application/json": map[string]any{
						"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
						"example": example,
					}},
				}
			}
		}
	}
}

// serveDocJSON renders the document on every request so version overrides apply
func serveDocJSON(titleSuffix string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		decorate(spec, "/api/v1", titleSuffix)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}
