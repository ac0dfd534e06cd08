package panel

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/scarabworks/scarab.go/pkg/cli/sh"
)

var (
	// WhoCmd asks the panel to identify itself.
	WhoCmd = ishell.Cmd{
		Name:    "who",
		Aliases: []string{"w"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Query(c, "WHO_ARE_YOU?")
		}),
	}

	// NameCPUCmd sets the CPU display name.
	NameCPUCmd = ishell.Cmd{
		Name: "name-cpu",
		Help: "NAME",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("name expected"))
				return
			}
			sh.Send(c, "NAME_CPU="+strings.Join(c.Args, " "))
		}),
	}

	// NameGPUCmd sets the GPU display name.
	NameGPUCmd = ishell.Cmd{
		Name: "name-gpu",
		Help: "NAME",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("name expected"))
				return
			}
			sh.Send(c, "NAME_GPU="+strings.Join(c.Args, " "))
		}),
	}

	// HashCmd sets the host hash.
	HashCmd = ishell.Cmd{
		Name: "hash",
		Help: "HASH",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("hash expected"))
				return
			}
			sh.Send(c, "NAME_HASH="+c.Args[0])
		}),
	}

	// SendCmd sends a raw line, e.g. a telemetry update.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "LINE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("line expected"))
				return
			}
			sh.Send(c, strings.Join(c.Args, " "))
		}),
	}
)

func init() {
	sh.AddCmds(
		&WhoCmd,
		&NameCPUCmd,
		&NameGPUCmd,
		&HashCmd,
		&SendCmd,
	)
}
