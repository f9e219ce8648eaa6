package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailfleet/campdash/internal/app"
	"github.com/mailfleet/campdash/internal/report"
	"github.com/mailfleet/campdash/internal/tenant"
)

var (
	fetchRange  string
	fetchClient string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one aggregation pass and print the result as JSON",
	Long:  `Fetch campaign metrics for the configured tenants once and print the aggregate to stdout, without starting the server.`,
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchRange, "range", "all", "date range: all, 7d, 30d or 90d")
	fetchCmd.Flags().StringVar(&fetchClient, "client", "", "restrict the fetch to one tenant id")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	tenants := application.Registry().Active()
	if fetchClient != "" {
		var matched []tenant.Tenant
		for _, t := range tenants {
			if t.ID == fetchClient {
				matched = append(matched, t)
			}
		}
		tenants = matched
	}

	results, err := application.Aggregator().Fleet(cmd.Context(), tenants, report.ParseRange(fetchRange))
	if err != nil {
		if errors.Is(err, report.ErrNoActiveTenants) {
			return fmt.Errorf("no active clients configured")
		}
		return fmt.Errorf("aggregation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
