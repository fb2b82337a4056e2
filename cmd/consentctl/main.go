package main

import (
	"os"

	"github.com/goliatone/go-consentform/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
