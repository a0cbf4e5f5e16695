package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/sekex/internal/venue"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the venue as a long-lived process",
	Long: `serve opens the venue, restores its last snapshot, starts the
audit-trail flush loop and (if configured) the websocket event
broadcaster, and blocks until interrupted. On shutdown it saves a
final snapshot before releasing its resources.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := venue.New(ctx, cfg)
	if err != nil {
		fatalf("opening venue: %v", err)
	}
	restored, err := v.LoadSnapshot(ctx)
	if err != nil {
		fatalf("loading snapshot: %v", err)
	}
	fmt.Printf("sekexd: owner=%s storage=%s audit=%s snapshot-restored=%v\n",
		cfg.Owner, cfg.Storage.Backend, cfg.Audit.Driver, restored)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.Run(gctx) })

	var httpServer *http.Server
	if cfg.Stream.Enabled && v.Stream != nil {
		mux := http.NewServeMux()
		mux.Handle("/ws", v.Stream)
		httpServer = &http.Server{Addr: cfg.Stream.Addr, Handler: mux}
		g.Go(func() error {
			fmt.Printf("sekexd: event stream listening on %s/ws\n", cfg.Stream.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("event stream server: %w", err)
			}
			return nil
		})
	}

	<-ctx.Done()
	fmt.Println("sekexd: shutting down")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "sekexd: %v\n", err)
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.SaveSnapshot(saveCtx); err != nil {
		fmt.Fprintf(os.Stderr, "sekexd: saving snapshot: %v\n", err)
	}
	if err := v.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "sekexd: closing venue: %v\n", err)
	}
}
