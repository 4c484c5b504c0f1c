package main

import (
	"os"

	"github.com/WOTOOOOOO/FAQ-tool/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
