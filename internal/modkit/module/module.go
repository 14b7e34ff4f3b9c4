// Package module holds the Module contract and port lookup. It sits apart
// from modkit so a module's http package can name it without a cycle
package module

import (
	phttp "lifesync/internal/platform/net/http"
)

// Module mounts routes and exposes the ports other modules wire against
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
