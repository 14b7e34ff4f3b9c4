//go:build swag

package swaggerkit

import (
	"github.com/swaggo/swag/v2"

	// generated by: swag init -g cmd/lifesync/main.go -o internal/services/api/docs --instanceName api --v3.1
	_ "lifesync/internal/services/api/docs"
)

// docReader returns the generated document, a seam for tests
var docReader = func() string {
	doc, err := swag.ReadDoc(InstanceName)
	if err != nil {
		return ""
	}
	return doc
}
