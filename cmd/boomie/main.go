package main

import (
	"fmt"
	"os"

	"github.com/Servus-Altissimi/Boomie/cmd/boomie/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
