package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fsminer/internal/manager"
	"fsminer/internal/minermock"
	"fsminer/pkg/extract"
	"fsminer/pkg/extractors"
	"fsminer/pkg/graph"
	"fsminer/pkg/ingest"
	"fsminer/pkg/server"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "fsminer",
		Short:         "File metadata miner: extracts file metadata into a knowledge graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	root.AddCommand(indexCmd(), extractCmd(), statusCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func indexCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "index <source_folder> <data_folder>",
		Short: "Index a source tree into a project store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir, dataDir := args[0], args[1]

			cfg := ingest.DefaultConfig()
			if configPath == "" {
				if _, err := os.Stat(filepath.Join(dataDir, "project.yaml")); err == nil {
					configPath = filepath.Join(dataDir, "project.yaml")
				}
			}
			if configPath != "" {
				loaded, err := ingest.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			storeCfg := graph.DefaultConfig(dataDir)
			storeCfg.SyncWrites = true
			s, err := graph.Open(storeCfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer s.Close()

			fmt.Printf("Indexing %s into %s (graph %q)\n", sourceDir, dataDir, cfg.Graph)
			stats, err := ingest.Run(cmd.Context(), s, extractors.DefaultRegistry(), cfg, sourceDir)
			if err != nil {
				return err
			}
			fmt.Printf("Done: %d files, %d extracted, %d failed, %d facts\n",
				stats.Files, stats.Extracted, stats.Failed, stats.Facts)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to project.yaml")
	return cmd
}

func extractCmd() *cobra.Command {
	var maxText int
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run a one-shot extraction and print the resource as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			mt, err := mimetype.DetectFile(path)
			if err != nil {
				return err
			}

			info, err := extract.New(extract.NewSubject(path),
				ingest.ContentID(filepath.Dir(path), path), mt.String(), "", maxText)
			if err != nil {
				return err
			}
			defer info.Unref()

			reg := extractors.DefaultRegistry()
			mod, err := reg.Lookup(mt.String())
			if err != nil {
				return err
			}
			if err := mod.ExtractMetadata(context.Background(), info); err != nil {
				return err
			}

			out, err := json.MarshalIndent(info.Resource(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n%s\n", path, mt.String(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxText, "max-text", 64<<10, "max bytes of embedded plain text")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <data_root>",
		Short: "Show fact counts for every project under the data root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := manager.NewStoreManager(args[0], true)
			defer mgr.CloseAll()

			projects, err := mgr.ListProjects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}
			for _, p := range projects {
				s, err := mgr.GetStore(p.ID)
				if err != nil {
					fmt.Printf("%-30s error: %v\n", p.ID, err)
					continue
				}
				fmt.Printf("%-30s %d facts\n", p.ID, s.Len())
			}

			miners := minermock.New()
			fmt.Println("\nMiners:")
			for _, m := range miners.Miners() {
				state := "running"
				if miners.IsPaused(m) {
					state = fmt.Sprintf("paused (%s)", strings.Join(miners.PauseReasons(m), ", "))
				}
				fmt.Printf("%-30s %s\n", m, state)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var readOnly bool
	cmd := &cobra.Command{
		Use:   "serve <data_root>",
		Short: "Run the REST API server over the project stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := manager.NewStoreManager(args[0], readOnly)
			defer mgr.CloseAll()

			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			fmt.Printf("Starting REST API server on :%s (data root %s)\n", port, args[0])
			return server.NewServer(mgr).Run(":" + port)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", true, "open project stores read-only")
	return cmd
}
