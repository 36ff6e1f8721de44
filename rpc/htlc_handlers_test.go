package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"swaplock/core"
	"swaplock/crypto"
	"swaplock/native/htlc"
	"swaplock/storage"
)

const testToken = "test-rpc-token"

func newTestServer(t *testing.T) (*Server, *core.Node) {
	t.Helper()
	t.Setenv(AuthTokenEnv, testToken)
	node, err := core.NewNode(storage.NewMemDB(), core.NodeConfig{
		ChainName:    "swaplock-test",
		HashRounds:   1,
		NativeSymbol: "SWP",
		Tokens:       []string{"USDQ"},
	})
	require.NoError(t, err)
	return NewServer(node), node
}

func bech32For(fill byte) string {
	raw := bytes.Repeat([]byte{fill}, 20)
	return crypto.MustNewAddress(crypto.SwapPrefix, raw).String()
}

func addrBytes(fill byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{fill}, 20))
	return out
}

type rpcTestResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func call(t *testing.T, s *Server, method string, params interface{}, token string) rpcTestResponse {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	var resp rpcTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMutationRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, "htlc_commit", map[string]interface{}{}, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = call(t, s, "htlc_commit", map[string]interface{}{}, "wrong-token")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, "htlc_fooBar", map[string]interface{}{}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestCommitAndQuery(t *testing.T) {
	s, node := newTestServer(t)
	sender := bech32For(0x01)
	receiver := bech32For(0x02)
	require.NoError(t, node.State().Mint("SWP", addrBytes(0x01), big.NewInt(1000)))

	params := map[string]interface{}{
		"sender":   sender,
		"receiver": receiver,
		"asset":    "SWP",
		"amount":   "400",
		"timelock": int64(4_000_000_000),
		"route": map[string]interface{}{
			"dstChain":   "otherchain",
			"dstAsset":   "OTC",
			"dstAddress": "otc1qxy",
		},
	}
	resp := call(t, s, "htlc_commit", params, testToken)
	require.Nil(t, resp.Error, "commit failed: %+v", resp.Error)

	var created idResult
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	require.Len(t, created.ID, 66)

	resp = call(t, s, "htlc_getCommit", map[string]interface{}{"id": created.ID}, "")
	require.Nil(t, resp.Error)
	var record commitJSON
	require.NoError(t, json.Unmarshal(resp.Result, &record))
	require.Equal(t, sender, record.Sender)
	require.Equal(t, receiver, record.Receiver)
	require.Equal(t, "400", record.Amount)
	require.Equal(t, "otherchain", record.Route.DstChain)
	require.False(t, record.Locked)

	// identical parameters re-derive the same id and collide
	resp = call(t, s, "htlc_commit", params, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCConflict, resp.Error.Code)

	// deriveId agrees with the id the node allocated
	derive := map[string]interface{}{
		"kind":     "commit",
		"sender":   sender,
		"receiver": receiver,
		"asset":    "SWP",
		"amount":   "400",
		"timelock": int64(4_000_000_000),
		"route": map[string]interface{}{
			"dstChain":   "otherchain",
			"dstAsset":   "OTC",
			"dstAddress": "otc1qxy",
		},
	}
	resp = call(t, s, "htlc_deriveId", derive, "")
	require.Nil(t, resp.Error)
	var derived idResult
	require.NoError(t, json.Unmarshal(resp.Result, &derived))
	require.Equal(t, created.ID, derived.ID)
}

func TestCommitValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)
	base := map[string]interface{}{
		"sender":   bech32For(0x01),
		"receiver": bech32For(0x02),
		"asset":    "SWP",
		"amount":   "100",
		"timelock": int64(4_000_000_000),
	}

	bad := func(key string, value interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(base))
		for k, v := range base {
			out[k] = v
		}
		out[key] = value
		return out
	}

	resp := call(t, s, "htlc_commit", bad("amount", "-5"), testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCInvalidParams, resp.Error.Code)

	resp = call(t, s, "htlc_commit", bad("sender", "not-bech32"), testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCInvalidParams, resp.Error.Code)

	resp = call(t, s, "htlc_commit", bad("timelock", int64(1)), testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCInvalidParams, resp.Error.Code)

	// unfunded sender
	resp = call(t, s, "htlc_commit", base, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCConflict, resp.Error.Code)
}

func TestLockRedeemOverRPC(t *testing.T) {
	s, node := newTestServer(t)
	sender := bech32For(0x03)
	receiver := bech32For(0x04)
	require.NoError(t, node.State().Mint("USDQ", addrBytes(0x03), big.NewInt(500)))

	secret, hashlock, err := htlc.GenerateSecret(htlc.SchemeSHA256)
	require.NoError(t, err)

	resp := call(t, s, "htlc_lock", map[string]interface{}{
		"sender":   sender,
		"receiver": receiver,
		"asset":    "USDQ",
		"amount":   "500",
		"timelock": int64(4_000_000_000),
		"hashlock": "0x" + hex.EncodeToString(hashlock[:]),
	}, testToken)
	require.Nil(t, resp.Error, "lock failed: %+v", resp.Error)
	var created idResult
	require.NoError(t, json.Unmarshal(resp.Result, &created))

	resp = call(t, s, "htlc_redeem", map[string]interface{}{
		"caller": receiver,
		"id":     created.ID,
		"secret": "0x" + hex.EncodeToString(secret),
	}, testToken)
	require.Nil(t, resp.Error, "redeem failed: %+v", resp.Error)
	var redeemed lockJSON
	require.NoError(t, json.Unmarshal(resp.Result, &redeemed))
	require.True(t, redeemed.Redeemed)
	require.Equal(t, "0x"+hex.EncodeToString(secret), redeemed.Secret)

	resp = call(t, s, "swaplock_getBalance", map[string]interface{}{
		"address": receiver,
		"asset":   "USDQ",
	}, "")
	require.Nil(t, resp.Error)
	var balance balanceResult
	require.NoError(t, json.Unmarshal(resp.Result, &balance))
	require.Equal(t, "500", balance.Balance)

	// replay is rejected as a conflict
	resp = call(t, s, "htlc_redeem", map[string]interface{}{
		"caller": receiver,
		"id":     created.ID,
		"secret": "0x" + hex.EncodeToString(secret),
	}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCConflict, resp.Error.Code)
}

func TestGetMissingRecord(t *testing.T) {
	s, _ := newTestServer(t)
	missing := "0x" + fmt.Sprintf("%064x", 0xDEAD)
	resp := call(t, s, "htlc_getLock", map[string]interface{}{"id": missing}, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCNotFound, resp.Error.Code)

	resp = call(t, s, "htlc_getLockIdByCommitId", map[string]interface{}{"commitId": missing}, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeHTLCNotFound, resp.Error.Code)
}
