package httpkit

import "net/http"

// APIV1 is the prefix every module mounts beneath
const APIV1 = "/api/v1"

// MountUnder routes prefix to a subrouter carrying mw, then lets mount
// register on it
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}

// MountAPIV1 is MountUnder at APIV1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, APIV1, mw, mount)
}
