// Command pantry tracks a pantry inventory from the command line, a terminal
// UI, or over HTTP and gRPC.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
