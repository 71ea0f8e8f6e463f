package main

import (
	"os"

	"github.com/openclue/soupmaster/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
