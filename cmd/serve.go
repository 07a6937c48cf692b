package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ecomenu/internal/assistant"
	cfgpkg "github.com/KaramelBytes/ecomenu/internal/config"
	"github.com/KaramelBytes/ecomenu/internal/server"
	"github.com/KaramelBytes/ecomenu/internal/session"
)

const (
	sessionIdle = 2 * time.Hour
	pruneEvery  = 10 * time.Minute
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Start the web dashboard",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), t)

		opts := cfg.AssistantOptions()
		if debug {
			opts.Debug = os.Stderr
		}
		// Each visitor gets their own assistant; a missing key surfaces on the
		// chat page only.
		store := session.NewStore(t, func() (*assistant.Assistant, error) {
			return assistant.New(opts)
		})
		srv, err := server.New(t, store, dashboardOptions(cfg))
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go pruneSessions(ctx, store)
		log.Printf("Loaded %d products from %s", t.Len(), t.Source)
		return server.Serve(ctx, addr, srv)
	},
}

// dashboardOptions leaves chat turns without a deadline of their own; the
// only bound is http_timeout_sec on the chat client.
func dashboardOptions(c *cfgpkg.Global) server.Options {
	return server.Options{TopN: c.TopN}
}

func pruneSessions(ctx context.Context, store *session.Store) {
	tick := time.NewTicker(pruneEvery)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := store.Prune(sessionIdle); n > 0 && debug {
				log.Printf("Pruned %d idle sessions", n)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server_addr, 127.0.0.1:8501)")
}
