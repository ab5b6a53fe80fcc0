package solbc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rpcHandler func(params json.RawMessage) (interface{}, *jsonrpc.RPCError)

// fakeNode – минимальный JSON-RPC узел, отвечающий по имени метода.
type fakeNode struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	node := &fakeNode{
		t:        t,
		handlers: make(map[string]rpcHandler),
		calls:    make(map[string]int),
	}
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)
	return node, server
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     interface{}     `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		n.t.Errorf("decode request: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &jsonrpc.RPCError{Code: -32601, Message: "Method not found"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func result(v interface{}) rpcHandler {
	return func(json.RawMessage) (interface{}, *jsonrpc.RPCError) { return v, nil }
}

func withContext(value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   value,
	}
}

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{WithConfirmInterval(time.Millisecond, 5*time.Millisecond)}, opts...)
	return NewClient(server.URL, zap.NewNop(), opts...)
}

func testTransaction(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet().PublicKey()
	ix := solana.NewInstruction(
		solana.NewWallet().PublicKey(),
		solana.AccountMetaSlice{solana.Meta(payer).WRITE().SIGNER()},
		[]byte{9, 1, 0, 0, 0, 0, 0, 0, 0},
	)
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

func TestClient_GetBalance(t *testing.T) {
	node, server := newFakeNode(t)
	node.handle("getBalance", result(withContext(5_000_000_000)))

	client := newTestClient(server)
	lamports, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey(), rpc.CommitmentConfirmed)

	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000), lamports)
}

func TestClient_GetTokenAccountBalance(t *testing.T) {
	node, server := newFakeNode(t)
	node.handle("getTokenAccountBalance", result(withContext(map[string]interface{}{
		"amount":         "1234500",
		"decimals":       6,
		"uiAmount":       1.2345,
		"uiAmountString": "1.2345",
	})))

	client := newTestClient(server)
	res, err := client.GetTokenAccountBalance(context.Background(), solana.NewWallet().PublicKey())

	require.NoError(t, err)
	require.NotNil(t, res.Value)
	assert.Equal(t, "1234500", res.Value.Amount)
	assert.Equal(t, uint8(6), res.Value.Decimals)
}

func TestClient_GetRecentPrioritizationFees(t *testing.T) {
	node, server := newFakeNode(t)
	var gotParams json.RawMessage
	node.handle("getRecentPrioritizationFees", func(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
		gotParams = params
		return []map[string]interface{}{
			{"slot": 10, "prioritizationFee": 0},
			{"slot": 11, "prioritizationFee": 2000},
		}, nil
	})

	account := solana.NewWallet().PublicKey()
	client := newTestClient(server)
	fees, err := client.GetRecentPrioritizationFees(context.Background(), []solana.PublicKey{account})

	require.NoError(t, err)
	require.Len(t, fees, 2)
	assert.Equal(t, uint64(2000), fees[1].PrioritizationFee)
	assert.Contains(t, string(gotParams), account.String())
}

func TestClient_GetRecentBlockhash(t *testing.T) {
	want := solana.HashFromBytes(solana.NewWallet().PublicKey().Bytes())

	t.Run("success", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("getLatestBlockhash", result(withContext(map[string]interface{}{
			"blockhash":            want.String(),
			"lastValidBlockHeight": 100,
		})))

		got, err := newTestClient(server).GetRecentBlockhash(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("rpc error", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("getLatestBlockhash", func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return nil, &jsonrpc.RPCError{Code: -32005, Message: "Node is behind"}
		})

		_, err := newTestClient(server).GetRecentBlockhash(context.Background())
		var rpcErr *jsonrpc.RPCError
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, -32005, rpcErr.Code)
	})
}

func TestClient_SendTransaction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sig := solana.SignatureFromBytes(make([]byte, 64))
		sig[0] = 7

		node, server := newFakeNode(t)
		node.handle("sendTransaction", result(sig.String()))

		got, err := newTestClient(server).SendTransaction(context.Background(), testTransaction(t))
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})

	t.Run("simulation failure is analyzed", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("sendTransaction", func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return nil, &jsonrpc.RPCError{
				Code:    -32002,
				Message: "Transaction simulation failed: Error processing Instruction 2: custom program error: 0x1e",
				Data: map[string]interface{}{
					"err": map[string]interface{}{"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 30}}},
					"logs": []string{
						"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
						"Program log: Error: exceeds desired slippage limit",
						"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 failed: custom program error: 0x1e",
					},
				},
			}
		})

		_, err := newTestClient(server).SendTransaction(context.Background(), testTransaction(t))

		var sendErr *blockchain.SendError
		require.True(t, errors.As(err, &sendErr))
		assert.Equal(t, -32002, sendErr.Code)
		assert.True(t, sendErr.SimulationFailed)
		assert.Len(t, sendErr.Logs, 3)
		assert.Equal(t, "custom program error: 0x1e", sendErr.ProgramError)
		assert.NotNil(t, sendErr.InstructionError)

		var rpcErr *jsonrpc.RPCError
		assert.True(t, errors.As(err, &rpcErr))
	})
}

func TestClient_WaitForTransactionConfirmation(t *testing.T) {
	sig := solana.SignatureFromBytes(make([]byte, 64))

	status := func(confirmation string, txErr interface{}) map[string]interface{} {
		return withContext([]interface{}{map[string]interface{}{
			"slot":               5,
			"confirmations":      nil,
			"err":                txErr,
			"confirmationStatus": confirmation,
		}})
	}

	t.Run("polls until confirmed", func(t *testing.T) {
		node, server := newFakeNode(t)
		var mu sync.Mutex
		polls := 0
		node.handle("getSignatureStatuses", func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			mu.Lock()
			defer mu.Unlock()
			polls++
			switch polls {
			case 1:
				return withContext([]interface{}{nil}), nil
			case 2:
				return status("processed", nil), nil
			default:
				return status("confirmed", nil), nil
			}
		})

		err := newTestClient(server).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentConfirmed)
		require.NoError(t, err)
		assert.Equal(t, 3, node.callCount("getSignatureStatuses"))
	})

	t.Run("processed is enough for processed commitment", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("getSignatureStatuses", result(status("processed", nil)))

		err := newTestClient(server).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentProcessed)
		require.NoError(t, err)
		assert.Equal(t, 1, node.callCount("getSignatureStatuses"))
	})

	t.Run("on-chain error stops polling", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("getSignatureStatuses", result(status("confirmed", map[string]interface{}{
			"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 30}},
		})))

		err := newTestClient(server).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentConfirmed)
		require.Error(t, err)
		assert.ErrorIs(t, err, blockchain.ErrTransactionFailed)
		assert.Equal(t, 1, node.callCount("getSignatureStatuses"))
	})

	t.Run("context bounds the wait", func(t *testing.T) {
		node, server := newFakeNode(t)
		node.handle("getSignatureStatuses", result(status("processed", nil)))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := newTestClient(server).WaitForTransactionConfirmation(ctx, sig, rpc.CommitmentFinalized)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_RateLimit(t *testing.T) {
	node, server := newFakeNode(t)
	node.handle("getBalance", result(withContext(1)))

	client := newTestClient(server, WithRateLimit(1))
	owner := solana.NewWallet().PublicKey()

	_, err := client.GetBalance(context.Background(), owner, rpc.CommitmentConfirmed)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, 1, node.callCount("getBalance"))
}

func TestReachedCommitment(t *testing.T) {
	tests := []struct {
		status rpc.ConfirmationStatusType
		want   rpc.CommitmentType
		ok     bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized, true},
		{"", rpc.CommitmentProcessed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, reachedCommitment(tt.status, tt.want), "%s vs %s", tt.status, tt.want)
	}
}
