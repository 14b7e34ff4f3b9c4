package module

import (
	"lifesync/internal/platform/config"
)

// Backends
const (
	BackendFile = "file"
	BackendPG   = "pg"
)

// Options selects and configures the state backend
type Options struct {
	Backend string
	Dir     string
}

// FromConfig reads CORE_STATE_* options
func FromConfig(cfg config.Conf) Options {
	st := cfg.Prefix("CORE_STATE_")
	return Options{
		Backend: st.MayEnum("BACKEND", BackendFile, BackendFile, BackendPG),
		Dir:     st.MayString("DIR", ".lifesync"),
	}
}
