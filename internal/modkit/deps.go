package modkit

import (
	"lifesync/internal/adapters/docstore"
	"lifesync/internal/modkit/repokit"
	"lifesync/internal/platform/config"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/notify"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// PG is nil unless the postgres state backend is configured
	PG repokit.TxRunner

	// Docs is the document store the sync and summary services write to
	Docs *docstore.FS

	// Notify receives operator notices, nil means log only
	Notify notify.Notifier
}

// Notifier returns d.Notify or a logging notifier when unset
func (d Deps) Notifier() notify.Notifier {
	if d.Notify == nil {
		return notify.Log{}
	}
	return d.Notify
}

// DocStore returns d.Docs or a default filesystem store when unset
func (d Deps) DocStore() *docstore.FS {
	if d.Docs == nil {
		return docstore.New()
	}
	return d.Docs
}
