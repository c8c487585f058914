// Command aikoc is the ahead-of-time compiler driver for Aiko.
package main

import (
	"os"

	"github.com/aikolang/aikoc/cmd/aikoc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
