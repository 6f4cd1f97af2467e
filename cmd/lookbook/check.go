package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lookbook-ai/lookbook/pkg/config"
	"github.com/lookbook-ai/lookbook/pkg/dedup"
)

func newCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check <url>...",
		Short: "Check image URLs for near-duplicates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			index := dedup.NewIndex(cfg.Dedup.MaxEntries, cfg.Dedup.Expiry())
			detector := dedup.NewDetector(index, cfg.Dedup.Threshold, nil)

			for _, url := range args {
				dup, match, err := detector.Check(cmd.Context(), url)
				if err != nil {
					log.Printf("check %s failed: %v", url, err)
					continue
				}
				if dup {
					fmt.Printf("%s: duplicate of %s\n", url, match)
				} else {
					fmt.Printf("%s: unique\n", url)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "lookbook.yaml", "path to config file")
	return cmd
}
