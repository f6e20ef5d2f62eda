// Command httpreplay captures HTTP exchanges into a SQLite store and replays
// them.
package main

import (
	"fmt"
	"os"

	"github.com/Mirraz/http-replay-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
