package main

import (
	"fmt"
	"os"

	"github.com/mmcdole/shelf/internal/cli"
	"github.com/mmcdole/shelf/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	opts := &cli.RootOptions{Version: Version, RunTUI: tui.Run}
	err := cli.NewRootCommand(opts).Execute()
	if cerr := opts.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		os.Exit(1)
	}
}
