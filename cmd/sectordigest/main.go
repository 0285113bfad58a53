package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mfeller/sectordigest/internal/collect"
	"github.com/mfeller/sectordigest/internal/config"
	"github.com/mfeller/sectordigest/internal/news"
	"github.com/mfeller/sectordigest/internal/pipeline"
	"github.com/mfeller/sectordigest/internal/server"
	"github.com/mfeller/sectordigest/internal/store"
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
	Use:     "sectordigest",
	Short:   "Sector-grouped market news summaries",
	Long:    "sectordigest fetches market news, groups it into sector topics with an LLM, and serves synthesized per-sector summaries.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
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
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sectordigest", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/sectordigest/",
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
		fmt.Println("Edit it to configure sources, API keys, and the LLM provider.")
		return nil
	},
}

// --- run command ---

var (
	daysBack int
	dryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> store -> aggregate -> summarize",
	RunE: func(cmd *cobra.Command, args []string) error {
		if daysBack > 0 {
			cfg.Sources.DaysBack = daysBack
		}

		if dryRun {
			return collectDryRun()
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		pipe := pipeline.New(cfg, st)
		result := pipe.Run(context.Background())

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !result.Failed() {
			fmt.Println("\nPipeline complete! Run 'sectordigest serve' to browse the digest.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect only; report counts without storing or classifying")
}

// collectDryRun fetches from every source and prints per-source counts
// without touching the store or the LLM.
func collectDryRun() error {
	articles, result := collect.NewCollector(cfg).Collect()

	fmt.Printf("Dry run: %d articles found\n", result.TotalFound)
	for source, n := range result.Sources {
		fmt.Printf("  %-20s %d\n", source, n)
	}
	fmt.Printf("Unique after dedup: %d\n", len(news.StoreArticles(articles)))
	return nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API and digest server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		runner := pipeline.NewRunner(pipeline.New(cfg, st))

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(st, runner, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored pipeline artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		infos, err := st.Stat()
		if err != nil {
			return fmt.Errorf("reading artifacts: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No artifacts yet. Run 'sectordigest run' first.")
			return nil
		}

		fmt.Printf("Store: %s\n\nArtifacts:\n", st.Path())
		for _, info := range infos {
			fmt.Printf("  %-18s %8d bytes  updated %s\n", info.Name, info.Size, info.UpdatedAt)
		}
		return nil
	},
}

func openStore() (*store.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.Open(filepath.Join(dataDir, "sectordigest.db"))
}
