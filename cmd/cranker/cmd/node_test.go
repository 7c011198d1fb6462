package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savings-vault/vault-cranker/config"
	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module/scheduler"
	"github.com/savings-vault/vault-cranker/utils/unittest"
)

// fakeLedger answers JSON-RPC requests with canned results per method and records the methods called.
type fakeLedger struct {
	mu      sync.Mutex
	results map[string]interface{}
	calls   map[string]int
}

func newFakeLedger(vaultExists bool) *fakeLedger {
	var account interface{}
	if vaultExists {
		account = map[string]interface{}{
			"data":       []string{"", "base64"},
			"executable": false,
			"lamports":   2039280,
			"owner":      unittest.SavingsVaultProgram.String(),
			"rentEpoch":  0,
		}
	}
	return &fakeLedger{
		results: map[string]interface{}{
			"getGenesisHash": solana.DevnetGenesisHash.String(),
			"getLatestBlockhash": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"blockhash":            unittest.HashFixture().String(),
					"lastValidBlockHeight": 100,
				},
			},
			"sendTransaction": unittest.SignatureFixture().String(),
			"getAccountInfo": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   account,
			},
		},
		calls: make(map[string]int),
	}
}

func (l *fakeLedger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     interface{} `json:"id"`
		Method string      `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	l.calls[req.Method]++
	result, ok := l.results[req.Method]
	l.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if ok {
		resp["result"] = result
	} else {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "Method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (l *fakeLedger) callCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// testConfig returns a config pointing at endpoint, with a fresh cranker keypair and the
// admin and metrics servers disabled.
func testConfig(t *testing.T, endpoint string) *config.Config {
	cfg, err := config.Default()
	require.NoError(t, err)

	keypair, err := unittest.SignerFixture(t).MarshalKeypair()
	require.NoError(t, err)

	cfg.RPCEndpoints = []string{endpoint}
	cfg.RPCTimeout = time.Second
	cfg.KeypairPath = unittest.WriteFile(t, "id.json", keypair)
	cfg.ConfirmTimeout = 0
	cfg.RunOnStart = true
	cfg.Pairs = []scheduler.Pair{{Wallet: unittest.DevnetWallet, Asset: unittest.DevnetAsset}}
	cfg.AdminAddr = ""
	cfg.MetricsPort = 0
	return cfg
}

func TestNode_CranksDuePairsOnStart(t *testing.T) {
	ledger := newFakeLedger(true)
	server := httptest.NewServer(ledger)
	defer server.Close()

	n, err := newNode(unittest.Logger(), testConfig(t, server.URL), clock.NewMock())
	require.NoError(t, err)
	assert.Nil(t, n.admin)
	assert.Nil(t, n.metricsServer)
	assert.EqualError(t, n.health(), "schedulers not started")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- n.run(ctx)
	}()

	require.Eventually(t, func() bool {
		states := n.runner.States()
		return len(states) == 1 && !states[0].LastExecution.IsZero()
	}, 5*time.Second, 10*time.Millisecond)

	assert.NoError(t, n.health())
	assert.Equal(t, 1, ledger.callCount("sendTransaction"))
	assert.Equal(t, 1, ledger.callCount("getAccountInfo"))
	// the vault exists, so the cluster is never identified
	assert.Zero(t, ledger.callCount("getGenesisHash"))

	cancel()
	var runErr error
	unittest.RequireReturnsBefore(t, func() {
		runErr = <-done
	}, 5*time.Second, "node did not shut down")
	require.NoError(t, runErr)
}

func TestNode_MissingVaultLeavesPairDue(t *testing.T) {
	ledger := newFakeLedger(false)
	server := httptest.NewServer(ledger)
	defer server.Close()

	n, err := newNode(unittest.Logger(), testConfig(t, server.URL), clock.NewMock())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- n.run(ctx)
	}()

	require.Eventually(t, func() bool {
		states := n.runner.States()
		return len(states) == 1 && states[0].ConsecutiveFailures == 1
	}, 5*time.Second, 10*time.Millisecond)

	state := n.runner.States()[0]
	assert.True(t, state.LastExecution.IsZero())
	assert.Contains(t, state.LastError, "does not exist on cluster devnet")
	// a missing vault is not retried within the cycle
	assert.Equal(t, 1, ledger.callCount("sendTransaction"))
	assert.Equal(t, 1, ledger.callCount("getGenesisHash"))

	cancel()
	var runErr error
	unittest.RequireReturnsBefore(t, func() {
		runErr = <-done
	}, 5*time.Second, "node did not shut down")
	require.NoError(t, runErr)
}

func TestNode_AdminServerRegistersCrankerCommands(t *testing.T) {
	ledger := newFakeLedger(true)
	server := httptest.NewServer(ledger)
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.AdminAddr = "localhost:0"
	cfg.RunOnStart = false

	n, err := newNode(unittest.Logger(), cfg, clock.NewMock())
	require.NoError(t, err)
	require.NotNil(t, n.admin)

	resp, err := n.admin.RunCommand(context.Background(), "list-schedules", nil)
	require.NoError(t, err)
	assert.Len(t, resp, 1)

	_, err = n.admin.RunCommand(context.Background(), "set-compute-unit-limit", float64(200000))
	require.NoError(t, err)
	assert.Equal(t, uint32(200000), n.builder.ComputeUnitLimit())
}
