// Command protcache loads protein files into a disposable SQLite cache.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/protcache/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		code := cli.GetExitCode(err)
		if code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}
