package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"scrollvault/internal/aggregator"
	"scrollvault/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "aggregator",
		Short:        "Consolidate CI audit findings across repositories",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug|info|warn|error")

	var (
		reposFile string
		cacheDir  string
		outDir    string
		uploadURL string
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Collect findings from the audit cache, write a report and optionally upload it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.New("development", logLevel)

			repos, err := aggregator.LoadRepos(reposFile)
			if err != nil {
				return err
			}
			log.Info("audit aggregation starting", "repos", len(repos), "cache_dir", cacheDir)

			now := time.Now()
			report, err := aggregator.New(cacheDir,
				aggregator.WithLogger(log),
				aggregator.WithClock(func() time.Time { return now }),
			).Collect(ctx, repos)
			if err != nil {
				return err
			}

			path, err := aggregator.WriteReport(outDir, report, now)
			if err != nil {
				return err
			}
			log.Info("audit report saved",
				"path", path,
				"total", report.Summary.Total,
				"critical", report.Summary.BySeverity["critical"],
				"high", report.Summary.BySeverity["high"],
				"medium", report.Summary.BySeverity["medium"],
				"low", report.Summary.BySeverity["low"],
			)

			if uploadURL == "" {
				log.Warn("no upload URL configured; report saved locally only")
				return nil
			}
			status, err := aggregator.NewUploader(uploadURL, nil).Upload(ctx, report)
			if err != nil {
				log.Warn("audit upload failed", "url", uploadURL, "status", status, "error", err)
				return nil
			}
			log.Info("audit uploaded", "url", uploadURL, "status", status)
			return nil
		},
	}
	runCmd.Flags().StringVar(&reposFile, "repos-file", "repos.yaml", "YAML file listing repositories under `repos:`")
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", ".audit-cache", "directory holding <org>_<repo>.json findings")
	runCmd.Flags().StringVar(&outDir, "out-dir", ".codenest-reports", "directory for audit-<timestamp>.json reports")
	runCmd.Flags().StringVar(&uploadURL, "upload-url", os.Getenv("CODENEST_API_URL"), "CodeNest API base URL (env CODENEST_API_URL)")

	root.AddCommand(runCmd)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
