package erc20

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	mkrAddr  = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	spender  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// fakeContract is the state served for one address. raw overrides ABI
// encoding per method.
type fakeContract struct {
	name        string
	symbol      string
	decimals    uint8
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	raw         map[string][]byte
}

// fakeNode is an httptest JSON-RPC server that answers eth_call for ERC-20
// getters and eth_chainId.
type fakeNode struct {
	t         *testing.T
	server    *httptest.Server
	chainID   uint64
	contracts map[common.Address]*fakeContract

	mu    sync.Mutex
	calls map[string]int
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{
		t:         t,
		chainID:   1,
		contracts: make(map[common.Address]*fakeContract),
		calls:     make(map[string]int),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		n.t.Errorf("decode request: %v", err)
		return
	}

	reply := func(result any, rpcErr map[string]any) {
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}

	switch req.Method {
	case "eth_chainId":
		n.record("eth_chainId")
		reply(hexutil.Uint64(n.chainID), nil)
	case "eth_call":
		var msg struct {
			To   common.Address `json:"to"`
			Data hexutil.Bytes  `json:"data"`
		}
		if err := json.Unmarshal(req.Params[0], &msg); err != nil {
			n.t.Errorf("decode call: %v", err)
			return
		}
		out, rpcErr := n.call(msg.To, msg.Data)
		reply(hexutil.Bytes(out), rpcErr)
	default:
		reply(nil, map[string]any{"code": -32601, "message": "method not found"})
	}
}

func (n *fakeNode) record(method string) {
	n.mu.Lock()
	n.calls[method]++
	n.mu.Unlock()
}

func (n *fakeNode) call(to common.Address, data []byte) ([]byte, map[string]any) {
	method, err := ABI.MethodById(data[:4])
	if err != nil {
		return nil, map[string]any{"code": 3, "message": "execution reverted"}
	}
	n.record(method.Name)

	c, ok := n.contracts[to]
	if !ok {
		// Calls to an address without code succeed with empty output.
		return []byte{}, nil
	}
	if raw, ok := c.raw[method.Name]; ok {
		return raw, nil
	}

	var values []any
	switch method.Name {
	case "name":
		values = []any{c.name}
	case "symbol":
		values = []any{c.symbol}
	case "decimals":
		values = []any{c.decimals}
	case "totalSupply":
		values = []any{c.totalSupply}
	case "balanceOf":
		args, _ := method.Inputs.Unpack(data[4:])
		bal := c.balances[args[0].(common.Address)]
		if bal == nil {
			bal = new(big.Int)
		}
		values = []any{bal}
	case "allowance":
		values = []any{big.NewInt(42)}
	}

	out, err := method.Outputs.Pack(values...)
	if err != nil {
		n.t.Errorf("pack %s: %v", method.Name, err)
	}
	return out, nil
}

func weth() *fakeContract {
	supply, _ := new(big.Int).SetString("2900000000000000000000000", 10)
	return &fakeContract{
		name:        "Wrapped Ether",
		symbol:      "WETH",
		decimals:    18,
		totalSupply: supply,
		balances: map[common.Address]*big.Int{
			owner: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		},
	}
}

// bytes32 encodes s the way pre-standard tokens return their symbol.
func bytes32(s string) []byte {
	out := make([]byte, 32)
	copy(out, s)
	return out
}
