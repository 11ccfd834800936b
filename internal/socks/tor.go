package socks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/tornago"
)

// Tor is a running embedded Tor daemon.
type Tor struct {
	process *tornago.TorProcess
	client  *Client
}

// StartTor launches a Tor daemon on random local ports and blocks until it
// has bootstrapped or timeout elapses. Bootstrapping usually takes one to
// three minutes.
func StartTor(ctx context.Context, timeout time.Duration, logger *slog.Logger) (*Tor, error) {
	cfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	logger.Info("starting embedded Tor daemon", "timeout", timeout)
	process, err := tornago.StartTorDaemon(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // already failing
		return nil, err
	}

	client, err := NewClient(process.SocksAddr())
	if err != nil {
		_ = process.Stop() //nolint:errcheck // already failing
		return nil, err
	}
	logger.Info("embedded Tor daemon ready", "socks", process.SocksAddr())
	return &Tor{process: process, client: client}, nil
}

// Client returns a SOCKS5 client for the daemon.
func (t *Tor) Client() (*Client, error) {
	if t == nil || t.process == nil {
		return nil, ErrTorNotRunning
	}
	return t.client, nil
}

// Stop shuts the daemon down. It is safe to call more than once.
func (t *Tor) Stop() error {
	if t == nil || t.process == nil {
		return nil
	}
	err := t.process.Stop()
	t.process = nil
	return err
}
