package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/infrastructure/storage"
)

// ErrStorageDisabled is returned by "logs archive" when storage.enabled is off
var ErrStorageDisabled = errors.New("log archive needs storage.enabled")

func newLogsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Manage the per-day sync log files",
	}

	var olderThan time.Duration
	archive := &cobra.Command{
		Use:   "archive",
		Short: "Upload closed sync log files to S3 and remove them locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if !a.cfg.Storage.Enabled {
					return ErrStorageDisabled
				}
				if olderThan <= 0 {
					olderThan = a.cfg.Log.ArchiveAfter
				}

				archiver, err := storage.NewS3Archiver(ctx, &a.cfg.Storage, storage.WithLogger(a.log))
				if err != nil {
					return err
				}
				result, err := archiver.Archive(ctx, a.cfg.Log.Dir, olderThan)
				if result != nil {
					p := newPrinter(cmd.OutOrStdout())
					for _, key := range result.Uploaded {
						p.line("  ✓ %s", key)
					}
					p.line("Archived %d log files, kept %d", len(result.Uploaded), result.Kept)
					a.log.Info("Sync logs archived",
						zap.Int("uploaded", len(result.Uploaded)),
						zap.Int("kept", result.Kept),
					)
				}
				return err
			})
		},
	}
	archive.Flags().DurationVar(&olderThan, "older-than", 0, "archive files older than this (default log.archive_after)")

	cmd.AddCommand(archive)
	return cmd
}
