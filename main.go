package main

import (
	"os"

	"github.com/sapiocode/sapio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
