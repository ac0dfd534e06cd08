// Package all registers all command providers.
package all

import (
	_ "github.com/scarabworks/scarab.go/pkg/cli/cmds/assets"
	_ "github.com/scarabworks/scarab.go/pkg/cli/cmds/panel"
)
