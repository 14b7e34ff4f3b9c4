// Package swaggerkit serves the OpenAPI document and Swagger UI for the control API
package swaggerkit

import (
	"net/http"

	phttp "lifesync/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocsPath is where the UI lives; the document is DocsPath + "/doc.json"
const DocsPath = "/api/docs"

// Mount the Swagger UI and JSON document if enabled. Mutators run in order
// on every request after the built-in shaping
func Mount(r phttp.Router, enabled bool, mutators ...Mutator) {
	if !enabled {
		return
	}
	r.Get(DocsPath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, DocsPath+"/", http.StatusPermanentRedirect)
	})
	r.Get(DocsPath+"/doc.json", serveDocJSON(mutators))
	r.Handle(DocsPath+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName(InstanceName),
		httpSwagger.URL(DocsPath+"/doc.json"),
	))
}
