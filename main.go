package main

import (
	"os"

	"github.com/bimmerbailey/jigyokei/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
