package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"lifesync/internal/modkit/httpkit"
)

// InstanceName is the swag instance the generated docs register under
const InstanceName = "api"

// Mutator adjusts the parsed document before it is served
type Mutator func(map[string]any)

func serveDocJSON(mutators []Mutator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		doc, err := Document(mutators...)
		if err != nil {
			http.Error(w, "document parse error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// Document parses the current document and applies the standard shaping
// followed by mutators
func Document(mutators ...Mutator) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(docReader()), &doc); err != nil {
		return nil, err
	}
	ensureServers(doc, httpkit.APIV1)
	ensureErrorSchema(doc)
	addDefaultResponse(doc, "400", "Bad Request", 400, "Bad Request", "limit must be between 1 and 400")
	addDefaultResponse(doc, "500", "Internal Server Error", 500, "Internal Server Error", "panic recovered")
	for _, m := range mutators {
		if m != nil {
			m(doc)
		}
	}
	return doc, nil
}

// Secured declares the bearer scheme when tokens guard the control routes.
// Without tokens the per operation requirements are stripped so the UI does
// not prompt for one
func Secured(on bool) Mutator {
	return func(doc map[string]any) {
		if !on {
			eachOperation(doc, func(_ string, op map[string]any) { delete(op, "security") })
			return
		}
		schemes := child(child(doc, "components"), "securitySchemes")
		if _, ok := schemes["BearerAuth"]; !ok {
			schemes["BearerAuth"] = map[string]any{"type": "http", "scheme": "bearer"}
		}
		eachOperation(doc, func(path string, op map[string]any) {
			if strings.HasPrefix(path, "/meta/") {
				return
			}
			if _, ok := op["security"]; !ok {
				op["security"] = []any{map[string]any{"BearerAuth": []any{}}}
			}
		})
	}
}

// ensureServers lifts swagger 2 output to OAS3, pins 3.1 down to 3.0.3 for
// the UI and sets the base url
func ensureServers(doc map[string]any, url string) {
	if _, ok := doc["swagger"]; ok {
		delete(doc, "swagger")
		delete(doc, "basePath")
		doc["openapi"] = "3.0.3"
	}
	if v, ok := doc["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		doc["openapi"] = "3.0.3"
	}
	if _, ok := doc["servers"]; !ok {
		doc["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorSchema describes the error envelope every handler replies with
func ensureErrorSchema(doc map[string]any) {
	schemas := child(child(doc, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Error envelope",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

func addDefaultResponse(doc map[string]any, key, desc string, status int, statusText, msg string) {
	resp := map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      statusText,
					"error":       msg,
				},
			},
		},
	}
	eachOperation(doc, func(_ string, op map[string]any) {
		rs := child(op, "responses")
		if _, ok := rs[key]; !ok {
			rs[key] = resp
		}
	})
}

func eachOperation(doc map[string]any, fn func(path string, op map[string]any)) {
	paths, _ := doc["paths"].(map[string]any)
	for path, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			if op, ok := opAny.(map[string]any); ok {
				fn(path, op)
			}
		}
	}
}

// child returns m[key] as a map, creating it when missing
func child(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	c := map[string]any{}
	m[key] = c
	return c
}
