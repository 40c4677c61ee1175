package main

import (
	"fmt"
	"os"

	"github.com/ss303/m3ssag1n8/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
