// Command vldm is a CLI client for a vldmgo-compatible cluster: a single
// get against a store, a bootstrap health check, and a topology dump.
package main

import "os"

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
