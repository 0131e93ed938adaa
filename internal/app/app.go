// Package app assembles a ledger node from its configuration and runs it
// until the context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/sheikh-saqib/epoch-ledger/internal/config"
	"github.com/sheikh-saqib/epoch-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/epoch-ledger/internal/httpapi"
	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/ledger"
	"github.com/sheikh-saqib/epoch-ledger/internal/logging"
	"github.com/sheikh-saqib/epoch-ledger/internal/portfile"
	"github.com/sheikh-saqib/epoch-ledger/internal/queue"
	"github.com/sheikh-saqib/epoch-ledger/internal/storage/memory"
)

// App is a fully wired node: listener, gateway and settlement worker.
type App struct {
	cfg       config.Config
	log       *logging.Logger
	ledger    *ledger.Ledger
	store     *memory.MemoryAccountStore
	publisher interfaces.EventPublisher
	listener  net.Listener
	server    *http.Server
}

// New builds the node and binds its listener. In new-node mode the bound
// port is written to the configured port file before New returns.
func New(cfg config.Config, log *logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewDefault("ledger-server")
	}
	if cfg.WorkerThreads > 0 {
		runtime.GOMAXPROCS(cfg.WorkerThreads)
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		store: memory.NewMemoryAccountStore(),
	}

	opts := []ledger.Option{
		ledger.WithInterval(cfg.SettlementInterval),
		ledger.WithLogger(log.Named("settlement")),
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub, err := kafka.NewPublisher(brokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
		a.publisher = pub
		opts = append(opts, ledger.WithPublisher(pub))
		log.WithField("brokers", brokers).WithField("topic", cfg.KafkaTopic).Info("publishing settled actions to kafka")
	}
	a.ledger = ledger.NewLedger(queue.New(cfg.QueueCapacity), a.store, opts...)

	gateway := httpapi.NewServer(a.ledger, httpapi.Options{
		SettlementInterval: cfg.SettlementInterval,
		SubmitRPS:          cfg.SubmitRPS,
		SubmitBurst:        cfg.SubmitBurst,
		Metrics:            cfg.MetricsEnabled,
	}, log.Named("gateway"))

	ln, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		a.closePublisher()
		return nil, fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
	}
	a.listener = ln

	if cfg.NewNode {
		port, err := portfile.PortOf(ln.Addr())
		if err == nil {
			err = portfile.Write(cfg.PortFile, port)
		}
		if err != nil {
			ln.Close()
			a.closePublisher()
			return nil, fmt.Errorf("record port: %w", err)
		}
		log.WithField("port", port).WithField("file", cfg.PortFile).Info("new node port recorded")
	}

	a.server = &http.Server{
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// Addr is the bound listen address.
func (a *App) Addr() net.Addr {
	return a.listener.Addr()
}

// Ledger exposes the node's ledger.
func (a *App) Ledger() *ledger.Ledger {
	return a.ledger
}

// Run serves requests and settles epochs until ctx is canceled, then shuts
// down: stop accepting requests, flush the queue, close the publisher.
func (a *App) Run(ctx context.Context) error {
	if err := a.ledger.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.listener.Addr().String()).Info("ledger server listening")
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("serve: %w", err)
			a.log.WithError(err).Error("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("http shutdown incomplete")
	}
	if err := a.ledger.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("settlement worker stop incomplete")
	}
	a.closePublisher()

	a.log.WithField("accounts", a.store.Len()).Info("ledger server stopped")
	return runErr
}

func (a *App) closePublisher() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close event publisher")
	}
}
