package main

import (
	"os"

	"github.com/plara718/rekishi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
