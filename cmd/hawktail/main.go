package main

import (
	"os"

	"github.com/telhawk-systems/hawktail/cmd/hawktail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
