package main

import (
	"fmt"
	"os"

	"github.com/roach88/rulekit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rulekit:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
