package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookbook-ai/lookbook/pkg/cache/disk"
	"github.com/lookbook-ai/lookbook/pkg/config"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show result cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c, err := disk.New(cfg.Cache.Dir, cfg.Cache.MaxSizeMB, cfg.Cache.Expiration())
			if err != nil {
				return err
			}

			stats := c.Stats()
			fmt.Printf("Entries:       %d\n", stats.Entries)
			fmt.Printf("Size:          %d bytes\n", stats.SizeBytes)
			fmt.Printf("Hits:          %d\n", stats.Hits)
			fmt.Printf("Misses:        %d\n", stats.Misses)
			fmt.Printf("Invalidations: %d\n", stats.Invalidations)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear result cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c, err := disk.New(cfg.Cache.Dir, cfg.Cache.MaxSizeMB, cfg.Cache.Expiration())
			if err != nil {
				return err
			}

			if err := c.Clear(expiredOnly); err != nil {
				return err
			}
			if expiredOnly {
				fmt.Println("Expired cache entries cleared.")
			} else {
				fmt.Println("All cache entries cleared.")
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "lookbook.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
