// Command brokerd runs the lease broker: a single-node message delivery
// server providing at-least-once delivery with exclusive, time-bounded
// processing leases over append-only logs.
package main

import (
	"fmt"
	"os"

	"github.com/brokerlabs/leasebroker/cmd/brokerd/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
