// Command anchorbench runs the anchoring-effect correlation engine as an
// HTTP service or as a one-shot CLI over CSV input.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
