package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "lookbook",
		Short:   "Lookbook — semantic caching and duplicate detection for fashion content",
		Version: version,
	}

	root.AddCommand(
		newCacheCmd(),
		newCheckCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
