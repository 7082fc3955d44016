package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emsdk/internal/app"
	"emsdk/internal/types"
)

type cleanupOptions struct {
	Keep     int
	KeepDays int
	DryRun   bool
}

func newCleanupCommand() *cobra.Command {
	opts := cleanupOptions{}
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old downloads from the archive cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanup(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Keep, "keep", app.DefaultCacheMaxFiles, "Keep the newest N downloads")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Drop kept downloads older than N days (0 = no age limit)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Only report what would be removed")
	_ = viper.BindPFlag("cache_max_files", cmd.Flags().Lookup("keep"))
	_ = viper.BindPFlag("cache_keep_days", cmd.Flags().Lookup("keep-days"))
	return cmd
}

func runCleanup(ctx context.Context, cmd *cobra.Command, opts cleanupOptions) error {
	service := newAppService()
	result, err := service.CleanupDownloads(ctx, types.CacheRetentionPolicy{
		MaxFiles: resolveInt(cmd, opts.Keep, "cache_max_files", "keep"),
		KeepDays: resolveInt(cmd, opts.KeepDays, "cache_keep_days", "keep-days"),
		DryRun:   opts.DryRun,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if result.DryRun {
		for _, name := range result.Deleted {
			fmt.Fprintln(out, renderLabel("would remove "+name))
		}
		fmt.Fprintf(out, "dry-run: keep=%d delete=%d\n", result.Kept, len(result.Deleted))
		return nil
	}
	fmt.Fprintf(out, "removed cached downloads: %d (kept %d)\n", len(result.Deleted), result.Kept)
	return nil
}
