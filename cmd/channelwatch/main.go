package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/channelwatch/channelwatch/internal/collect"
	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/channelwatch/channelwatch/internal/logger"
	"github.com/channelwatch/channelwatch/internal/pipeline"
	"github.com/channelwatch/channelwatch/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "channelwatch",
	Short:   "Pricing intelligence for the IT channel",
	Long:    "channelwatch collects community and news signals about vendor pricing,\nselects the most relevant items, and generates citation-linked pricing reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys may live in a local .env next to the binary.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger.Setup("info")
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.Setup(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(vendorsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("channelwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/channelwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources, vendors, and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		today := database.GetToday()
		fmt.Printf("Today: %s\n\n", today)
		fmt.Println("Items:")
		fmt.Printf("  Total collected: %d\n", stats.TotalItems)
		fmt.Printf("  From forums: %d\n", stats.ItemsByForum)
		fmt.Printf("  From search: %d\n", stats.ItemsBySearch)
		fmt.Printf("  Selected: %d\n", stats.SelectedItems)
		fmt.Println("\nOutput:")
		fmt.Printf("  Reports: %d\n", stats.Reports)
		fmt.Printf("  Insights: %d\n", stats.Insights)
		fmt.Printf("  Periods with data: %d\n", stats.PeriodsWithItems)
		fmt.Println("\nVendor Watchlist:")
		fmt.Printf("  Total: %d\n", stats.TotalVendors)
		fmt.Printf("  Active: %d\n", stats.ActiveVendors)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect items from configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		periodID := database.GetToday()
		fmt.Println("Collecting items from sources...")

		collector := collect.NewCollector(cfg, db, 1)
		result := collector.Collect(periodID)

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New items: %d\n", result.NewItems)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nItems by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> fetch -> score -> select -> summarize -> compose",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		today := database.GetToday()
		periodID, effectiveDaysBack, err := resolvePeriod(db, today, daysBack)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg, db)
		ctx := context.Background()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(periodID)
		} else {
			result = pipe.Run(ctx, periodID, effectiveDaysBack)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/6: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'channelwatch serve' to view the report.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
}

// resolvePeriod determines the period ID and effective days back based on
// explicit --days-back, catch-up detection, or daily run.
func resolvePeriod(db *database.DB, today string, explicitDaysBack int) (periodID string, effectiveDaysBack int, err error) {
	if explicitDaysBack > 0 {
		if explicitDaysBack == 1 {
			periodID = today
		} else {
			todayDate, _ := time.Parse("2006-01-02", today)
			start := todayDate.AddDate(0, 0, -(explicitDaysBack - 1)).Format("2006-01-02")
			periodID = database.MakePeriodID(start, today)
		}
		fmt.Printf("Collecting %d day(s) of items (%s).\n", explicitDaysBack, periodID)
		return periodID, explicitDaysBack, nil
	}

	lastRun, _ := db.GetLastRunDate()
	if lastRun == "" {
		fmt.Println("First run detected, collecting today's items.")
		return today, 1, nil
	}

	lastDate, _ := time.Parse("2006-01-02", lastRun)
	todayDate, _ := time.Parse("2006-01-02", today)
	missedDays := int(todayDate.Sub(lastDate).Hours() / 24)

	if missedDays <= 0 {
		fmt.Printf("Already ran today (%s). Re-running pipeline.\n", today)
		return today, 1, nil
	}

	if missedDays == 1 {
		fmt.Printf("Daily run for %s.\n", today)
		return today, 1, nil
	}

	// Catch-up: missed multiple days
	startDate := lastDate.AddDate(0, 0, 1).Format("2006-01-02")
	periodID = database.MakePeriodID(startDate, today)

	if missedDays > 5 {
		fmt.Printf("Last run was %d days ago (%s).\n", missedDays, lastRun)
		fmt.Printf("Catch up %d days (%s)? This will use more API calls [y/N]: ", missedDays, periodID)

		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			return "", 0, fmt.Errorf("aborted")
		}
	} else {
		fmt.Printf("Catching up %d days (%s).\n", missedDays, periodID)
	}

	return periodID, missedDays, nil
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report [period]",
	Short: "Print a stored report as markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		periodID := database.GetToday()
		if len(args) > 0 {
			periodID = args[0]
		}

		report, err := db.GetReport(periodID)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("no report for %s", periodID)
		}

		fmt.Println(report.BodyMarkdown)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- vendors command ---

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Manage the vendor watchlist",
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all watchlist vendors",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		vendors, err := db.GetAllVendors()
		if err != nil {
			return err
		}

		if len(vendors) == 0 {
			fmt.Println("No vendors on the watchlist. Add one with: channelwatch vendors add")
			return nil
		}

		fmt.Println("Vendor Watchlist:")
		fmt.Println()
		for _, v := range vendors {
			icon := " "
			if v.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s tier %d  %s\n", v.ID, icon, v.Tier, v.Name)
			if len(v.Aliases) > 0 {
				fmt.Printf("        aliases: %s\n", strings.Join(v.Aliases, ", "))
			}
		}
		return nil
	},
}

var vendorTier int

var vendorsAddCmd = &cobra.Command{
	Use:   "add [name] [alias...]",
	Short: "Add a vendor to the watchlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		name := args[0]
		var aliases []string
		if len(args) > 1 {
			aliases = args[1:]
		}

		id, err := db.InsertVendor(name, vendorTier, aliases)
		if err != nil {
			return err
		}
		fmt.Printf("Added vendor [%d]: %s (tier %d)\n", id, name, vendorTier)
		return nil
	},
}

var vendorsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a vendor from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		vendor, err := db.GetVendorByName(args[0])
		if err != nil {
			return err
		}
		if vendor == nil {
			return fmt.Errorf("vendor %q not found", args[0])
		}

		if err := db.DeleteVendor(vendor.ID); err != nil {
			return err
		}
		fmt.Printf("Removed vendor [%d]: %s\n", vendor.ID, vendor.Name)
		return nil
	},
}

var vendorsTierCmd = &cobra.Command{
	Use:   "tier [name] [tier]",
	Short: "Change a vendor's tier (1-3)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		vendor, err := db.GetVendorByName(args[0])
		if err != nil {
			return err
		}
		if vendor == nil {
			return fmt.Errorf("vendor %q not found", args[0])
		}

		tier, err := strconv.Atoi(args[1])
		if err != nil || tier < 1 || tier > 3 {
			return fmt.Errorf("tier must be 1, 2, or 3")
		}

		if err := db.UpdateVendor(vendor.ID, &tier, nil); err != nil {
			return err
		}
		fmt.Printf("Vendor %s is now tier %d\n", vendor.Name, tier)
		return nil
	},
}

var vendorsToggleCmd = &cobra.Command{
	Use:   "toggle [name]",
	Short: "Toggle a vendor's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		vendor, err := db.GetVendorByName(args[0])
		if err != nil {
			return err
		}
		if vendor == nil {
			return fmt.Errorf("vendor %q not found", args[0])
		}

		if err := db.ToggleVendor(vendor.ID); err != nil {
			return err
		}
		newState := "disabled"
		if !vendor.IsActive {
			newState = "enabled"
		}
		fmt.Printf("Vendor %s: %s\n", vendor.Name, newState)
		return nil
	},
}

func init() {
	vendorsAddCmd.Flags().IntVar(&vendorTier, "tier", 3, "Vendor tier (1 = highest priority)")

	vendorsCmd.AddCommand(vendorsListCmd)
	vendorsCmd.AddCommand(vendorsAddCmd)
	vendorsCmd.AddCommand(vendorsRemoveCmd)
	vendorsCmd.AddCommand(vendorsTierCmd)
	vendorsCmd.AddCommand(vendorsToggleCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "channelwatch.db")
	return database.Open(dbPath)
}
