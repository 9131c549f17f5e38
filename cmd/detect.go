// Package cmd provides command-line interface commands for the workbench.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"workbench/bootstrap"
	"workbench/config"
	"workbench/detect"
	"workbench/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

var (
	outputJSON bool
	noColor    bool
	eventLimit int
)

const defaultTimeout = 5 * time.Minute

// NewDetectCmd creates the one-shot detection run command.
func NewDetectCmd() *cobra.Command {
	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Run detection rules against stored events",
		Long: `Run all enabled detection rules against stored events once and exit.

Alerts are deduplicated per rule and event, so repeated runs only report
newly created alerts. Useful for operators and cron-less setups; the server
can also run detections on a schedule.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: runDetect,
	}

	detectCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	detectCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	detectCmd.Flags().IntVar(&eventLimit, "limit", 0, "Max events to scan (0 = configured default)")

	return detectCmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI output goes to stdout; keep the structured log quiet unless asked.
	_, sugar, err := bootstrap.InitLogger("error")
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	sqlite, err := storage.NewSQLite(cfg.DataPaths.SQLitePath, sugar)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.DataPaths.SQLitePath, err)
	}
	defer sqlite.Close()

	rules := storage.NewSQLiteRuleStorage(sqlite, sugar)
	events := storage.NewSQLiteEventStorage(sqlite, sugar)
	alerts := storage.NewSQLiteAlertStorage(sqlite, sugar)

	limit := cfg.Detection.EventLimit
	if eventLimit > 0 {
		limit = eventLimit
	}

	enabled, err := rules.GetEnabledRules(ctx)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	eventCount, err := events.GetEventCount(ctx)
	if err != nil {
		return fmt.Errorf("counting events: %w", err)
	}

	runner := detect.NewRunner(rules, events, alerts, limit, sugar)

	start := time.Now()
	result, err := runner.Run(ctx)
	if err != nil {
		if outputJSON {
			printJSON(map[string]interface{}{
				"alerts_created": result.AlertsCreated,
				"error":          err.Error(),
			})
		} else {
			errorColor.Fprintf(os.Stderr, "Detection run failed: %v\n", err)
			fmt.Printf("Alerts created before failure: %d\n", result.AlertsCreated)
		}
		return err
	}

	if outputJSON {
		printJSON(map[string]interface{}{
			"alerts_created": result.AlertsCreated,
			"rules":          len(enabled),
			"events":         eventCount,
			"duration_ms":    time.Since(start).Milliseconds(),
		})
		return nil
	}

	headerColor.Println("Detection run complete")
	infoColor.Printf("  Rules evaluated:  %d\n", len(enabled))
	infoColor.Printf("  Events stored:    %d (scanned up to %d)\n", eventCount, limit)
	infoColor.Printf("  Duration:         %s\n", time.Since(start).Round(time.Millisecond))
	if result.AlertsCreated > 0 {
		successColor.Printf("  New alerts:       %d\n", result.AlertsCreated)
	} else {
		fmt.Println("  New alerts:       0")
	}
	return nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}
