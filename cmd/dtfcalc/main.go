// Command dtfcalc quotes DTF print orders and imports legacy price lists.
package main

import (
	"os"

	"github.com/Simplici0/printdesk/cmd/dtfcalc/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
