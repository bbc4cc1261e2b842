package main

import (
	"os"

	"github.com/Rana718/synthdb/cmd"
	"github.com/Rana718/synthdb/internal/errors"
)

func main() {
	os.Exit(errors.ExitCode(cmd.Execute()))
}
