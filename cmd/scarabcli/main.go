package main

import (
	"github.com/scarabworks/scarab.go/pkg/cli/sh"

	_ "github.com/scarabworks/scarab.go/pkg/cli/cmds/all"
)

func main() {
	sh.Main()
}
