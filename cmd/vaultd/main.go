// Command vaultd runs the personal document vault server.
package main

import (
	"os"

	"github.com/custodia-labs/vaultd/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
