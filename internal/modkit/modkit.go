// Package modkit wires the control api modules: shared deps, build options
// and the Module contract
package modkit

import "lifesync/internal/modkit/module"

// Module is the contract every api module implements
type Module = module.Module
