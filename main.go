// Package main is the entry point for vidbridge.
package main

import (
	"github.com/samber/lo"
	"github.com/vidbridge/vidbridge/cmd"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
