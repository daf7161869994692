package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/gateway"
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("transport", "", "backend transport (http or channel)")
	cmd.Flags().String("base-url", "", "backend URL for the http transport")
}

// dial connects to the backend with the configured transport. The
// returned func releases the connection.
func (a *app) dial(ctx context.Context) (gateway.Gateway, func(), error) {
	switch a.cfg.Client.Transport {
	case config.TransportChannel:
		command, err := a.channelCommand()
		if err != nil {
			return nil, nil, err
		}
		ch, err := gateway.SpawnChannel(ctx, command)
		if err != nil {
			return nil, nil, fmt.Errorf("starting backend channel: %w", err)
		}
		a.logger.Debug("backend channel started", "command", command)
		return ch, func() {
			if err := ch.Close(); err != nil {
				a.logger.Warn("closing backend channel", "err", err)
			}
		}, nil
	default:
		a.logger.Debug("using http backend", "url", a.cfg.Client.BaseURL)
		return gateway.NewHTTP(a.cfg.Client.BaseURL), func() {}, nil
	}
}

// channelCommand returns the configured command, or this binary's own
// channel command pointed at the same data directory.
func (a *app) channelCommand() ([]string, error) {
	if len(a.cfg.Client.ChannelCommand) > 0 {
		return a.cfg.Client.ChannelCommand, nil
	}
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating tally binary: %w", err)
	}
	return []string{self, "channel", "--data-dir", a.cfg.Data.Dir, "--log-level", a.cfg.Log.Level}, nil
}
