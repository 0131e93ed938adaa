package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/sheikh-saqib/epoch-ledger/internal/config"
	"github.com/sheikh-saqib/epoch-ledger/internal/logging"
	"github.com/sheikh-saqib/epoch-ledger/internal/portfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.NewNode = true
	cfg.PortFile = filepath.Join(t.TempDir(), "config", "port")
	cfg.SettlementInterval = 50 * time.Millisecond
	cfg.ShutdownTimeout = 5 * time.Second
	cfg.WorkerThreads = 0
	return cfg
}

type node struct {
	base   string
	cancel context.CancelFunc
	done   chan error
}

func startNode(t *testing.T, cfg config.Config) (*App, *node) {
	t.Helper()
	a, err := New(cfg, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	n := &node{
		base:   "http://" + a.Addr().String(),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { n.done <- a.Run(ctx) }()
	t.Cleanup(func() { n.stop(t) })
	return a, n
}

func (n *node) stop(t *testing.T) {
	t.Helper()
	if n.cancel == nil {
		return
	}
	n.cancel()
	n.cancel = nil
	select {
	case err := <-n.done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("node did not stop")
	}
}

func (n *node) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := http.Get(n.base + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, path)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// fetch is safe to call from assert.Eventually's goroutine.
func (n *node) fetch(path string) string {
	resp, err := http.Get(n.base + path)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestNode_TransferSettlesWithinAnEpoch(t *testing.T) {
	_, n := startNode(t, testConfig(t))

	assert.Contains(t, n.get(t, "/create-account?acct_id=1&balance_0=100.0"), "Pushed: Action_CreateAccount with ID: 1")
	n.get(t, "/create-account?acct_id=2&balance_0=0.0")
	assert.Contains(t, n.get(t, "/transfer?from_id=1&to_id=2&amount=40.0"), "Transfer pushed")

	assert.Eventually(t, func() bool {
		return n.fetch("/balance?acct_id=1") == "60" && n.fetch("/balance?acct_id=2") == "40"
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "Unrecognized request", n.get(t, "/nope"))
}

func TestNode_WritesPortFile(t *testing.T) {
	cfg := testConfig(t)
	a, _ := startNode(t, cfg)

	port, err := portfile.Read(cfg.PortFile)
	require.NoError(t, err)

	bound, err := portfile.PortOf(a.Addr())
	require.NoError(t, err)
	assert.Equal(t, bound, port)
}

func TestNode_ShutdownFlushesQueue(t *testing.T) {
	cfg := testConfig(t)
	cfg.SettlementInterval = time.Hour
	a, n := startNode(t, cfg)

	n.get(t, "/create-account?acct_id=9&balance_0=12.5")
	require.Equal(t, 1, a.Ledger().Pending())

	n.stop(t)

	bal, err := a.Ledger().Balance(9)
	require.NoError(t, err)
	assert.Equal(t, "12.5", bal.String())
	assert.Equal(t, 0, a.Ledger().Pending())
}

func TestNew_ListenFailure(t *testing.T) {
	cfg := testConfig(t)
	a, _ := startNode(t, cfg)

	busy := config.Default()
	busy.Port, _ = portfile.PortOf(a.Addr())
	busy.ShutdownTimeout = time.Second
	_, err := New(busy, logging.Discard())
	assert.ErrorContains(t, err, fmt.Sprintf("listen on 127.0.0.1:%d", busy.Port))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SettlementInterval = 0
	_, err := New(cfg, logging.Discard())
	assert.Error(t, err)
}
