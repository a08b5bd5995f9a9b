package main

import (
	"os"

	"github.com/dex/lingbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
