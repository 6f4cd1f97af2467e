package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookbook-ai/lookbook/pkg/config"
	"github.com/lookbook-ai/lookbook/pkg/ledger"
)

func newHistoryCmd() *cobra.Command {
	var configPath string
	var sheetName string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously processed image URLs for a sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			led, err := ledger.Open(cfg.Ledger.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			recs, err := led.Records(cmd.Context(), sheetName)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Printf("No records for sheet %q.\n", sheetName)
				return nil
			}
			for _, rec := range recs {
				fmt.Printf("%s  %s  %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.ImageURL, rec.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "lookbook.yaml", "path to config file")
	cmd.Flags().StringVarP(&sheetName, "sheet", "s", "Sheet1", "sheet name")
	return cmd
}
