package main

import (
	"os"

	"github.com/docvault-io/docvault/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
