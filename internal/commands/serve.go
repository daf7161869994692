package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/backend"
	"github.com/tally-dev/tally/internal/channel"
	"github.com/tally-dev/tally/internal/events"
	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			a.logger.Info("serving ledger", "addr", a.cfg.Server.Addr, "data", a.cfg.Data.Dir)
			return server.New(svc, a.logger).ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address")

	return cmd
}

func newChannelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    "channel",
		Short:  "Serve the backend over stdin/stdout",
		Long:   "Serve the backend as newline-delimited JSON messages over stdin/stdout. Logs go to stderr.",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			return channel.NewServer(svc, a.logger).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (a *app) openBackend(ctx context.Context) (*backend.Service, error) {
	opts := []backend.Option{backend.WithLogger(a.logger)}
	if a.cfg.Data.Git {
		repo, err := history.Init(ctx, a.cfg.Data.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		opts = append(opts, backend.WithHistory(repo))
	}

	pub := events.New(a.cfg.Events.Brokers, a.cfg.Events.Topic)
	svc, err := backend.Open(a.cfg.Data.Dir, append(opts, backend.WithPublisher(pub))...)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return svc, nil
}
