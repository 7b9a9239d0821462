package main

import (
	"os"

	"github.com/aidebug/aidebug/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
