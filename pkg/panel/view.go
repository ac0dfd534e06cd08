package panel

import (
	"github.com/scarabworks/scarab.go/pkg/assets"
	"github.com/scarabworks/scarab.go/pkg/identity"
	"github.com/scarabworks/scarab.go/pkg/stats"
)

// View is the display collaborator. The renderer calls it under the
// render lock on the render task only; implementations draw widgets
// and own nothing handed to them beyond the call.
type View interface {
	// ShowStats presents the latest snapshot. stale means the link
	// has gone quiet past the configured threshold.
	ShowStats(snap stats.Snapshot, stale bool)
	// ShowIdentity refreshes the hardware name labels.
	ShowIdentity(rec identity.Record)
	// SetSlotImage installs a slot's screensaver image. img is nil
	// when the slot reverted to its compiled-in fallback.
	SetSlotImage(slot assets.Slot, img *assets.Image, fb assets.Fallback)
}
