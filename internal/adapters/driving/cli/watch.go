package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-mail/internal/adapters/driving/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest uploads and extract text in the background",
	Long: `Watches the upload folder and ingests every PST or MBOX archive copied
into it. Archives are moved to processed/ or failed/ afterwards.

The scheduler also runs pending attachment extraction and a periodic
rescan of the upload folder. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// watchSettle is how long an archive must be unchanged before ingest.
var watchSettle time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle,
		"Wait this long after the last write before ingesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if inboxService == nil {
		return errors.New("inbox service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Archives copied in while nothing was watching.
	n, err := inboxService.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning upload folder: %w", err)
	}
	if n > 0 {
		cmd.Printf("Ingested %d waiting archives.\n", n)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", inboxService.Dir())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.New(inboxService, watchSettle).Run(gctx)
	})
	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			return scheduler.Stop()
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Stopped.")
	return nil
}
