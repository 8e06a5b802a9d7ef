package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// RPCConfig holds node connection parameters.
type RPCConfig struct {
	URL      string
	User     string
	Password string
}

// RPCClient is a JSON-RPC 1.0 client for the ledger-platform node. All
// high-level methods are built on top of Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ Service = (*RPCClient)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a JSON-RPC client. Basic Auth is used when User is
// non-empty; connections are pooled for reuse.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method on the node. If params is nil an empty
// array is sent; if result is nil the response body is discarded.
//
// Call returns ErrConnectionFailed if the HTTP request fails and
// ErrInvalidResponse if the response cannot be decoded. RPC-level errors
// are returned with the server's message.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("chain: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chain: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrInvalidResponse, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respData, &rpcResp); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("chain: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: decode result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// GetBestBlockHeight returns the chain tip height via getblockcount.
func (c *RPCClient) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.Call(ctx, "getblockcount", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// GetBlockHash returns the block hash at a height via getblockhash.
func (c *RPCClient) GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	var hashHex string
	if err := c.Call(ctx, "getblockhash", []interface{}{height}, &hashHex); err != nil {
		return nil, fmt.Errorf("%w: height %d: %w", ErrBlockNotFound, height, err)
	}
	h, err := chainhash.NewHashFromHex(hashHex)
	if err != nil {
		return nil, fmt.Errorf("%w: bad hash %q: %w", ErrInvalidResponse, hashHex, err)
	}
	return h, nil
}

// BroadcastTx submits a raw transaction hex via sendrawtransaction.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}
