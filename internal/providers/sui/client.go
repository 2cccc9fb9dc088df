package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nftbazaar/marketgate/internal/adapter"
)

// Client defines the ledger RPC surface the read and write paths depend on.
// All reads are single-shot; pagination cursors are accepted from the RPC but
// callers work on one bounded page.
//
//go:generate mockgen -source=client.go -destination=../../mocks/sui_client.go -package=mocks -mock_names=Client=MockSuiClient
type Client interface {
	// GetObject fetches a single object by id
	GetObject(ctx context.Context, objectID string, opts ObjectDataOptions) (*ObjectResponse, error)

	// MultiGetObjects fetches a batch of objects by id, preserving order
	MultiGetObjects(ctx context.Context, objectIDs []string, opts ObjectDataOptions) ([]ObjectResponse, error)

	// GetOwnedObjects lists objects held by an address, filtered by struct type
	GetOwnedObjects(ctx context.Context, owner string, structType string, opts ObjectDataOptions) ([]ObjectResponse, error)

	// QueryObjects lists live objects of a struct type regardless of owner.
	// Not every RPC endpoint supports this; callers must treat an error as a
	// cue to fall back, not as a failure.
	QueryObjects(ctx context.Context, structType string, opts ObjectDataOptions, limit int) ([]ObjectResponse, error)

	// QueryEvents lists events of a Move event type, bounded by limit
	QueryEvents(ctx context.Context, eventType string, limit int, descending bool) ([]Event, error)

	// GetTransactionBlock fetches a transaction by digest
	GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlock, error)

	// GetBalance returns the gas-coin balance of an address in base units
	GetBalance(ctx context.Context, address string) (uint64, error)

	// BuildMoveCall builds an unsigned move-call transaction for wallet signing
	BuildMoveCall(ctx context.Context, signer, packageID, module, function string, typeArgs []string, args []interface{}, gasBudget uint64) (*TransactionBytes, error)

	// ExecuteTransactionBlock submits a signed transaction and returns its
	// effects. Execution is atomic on the ledger: full success or rejection.
	ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (*TransactionBlock, error)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// client is the concrete JSON-RPC 2.0 implementation of Client
type client struct {
	endpoint   string
	httpClient adapter.HTTPClient
}

// NewClient creates a new ledger RPC client against the given endpoint URL
func NewClient(endpoint string, httpClient adapter.HTTPClient) Client {
	return &client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// call performs one JSON-RPC round trip and unmarshals the result into out
func (c *client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := c.httpClient.PostJSON(ctx, c.endpoint, req, &resp); err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	return decodeRPCResponse(method, &resp, out)
}

// callOnce is call without the transport retry loop. Submitting a signed
// transaction twice after an ambiguous failure could double-execute it, so
// the single attempt's outcome is surfaced as-is.
func (c *client) callOnce(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := c.httpClient.PostJSONOnce(ctx, c.endpoint, req, &resp); err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	return decodeRPCResponse(method, &resp, out)
}

func decodeRPCResponse(method string, resp *rpcResponse, out interface{}) error {
	if resp.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("rpc %s: failed to decode result: %w", method, err)
	}
	return nil
}

func (c *client) GetObject(ctx context.Context, objectID string, opts ObjectDataOptions) (*ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.call(ctx, "sui_getObject", []interface{}{objectID, opts}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) MultiGetObjects(ctx context.Context, objectIDs []string, opts ObjectDataOptions) ([]ObjectResponse, error) {
	var resp []ObjectResponse
	if err := c.call(ctx, "sui_multiGetObjects", []interface{}{objectIDs, opts}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *client) GetOwnedObjects(ctx context.Context, owner string, structType string, opts ObjectDataOptions) ([]ObjectResponse, error) {
	query := map[string]interface{}{
		"filter":  map[string]interface{}{"StructType": structType},
		"options": opts,
	}

	var page ObjectPage
	if err := c.call(ctx, "suix_getOwnedObjects", []interface{}{owner, query, nil, nil}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *client) QueryObjects(ctx context.Context, structType string, opts ObjectDataOptions, limit int) ([]ObjectResponse, error) {
	query := map[string]interface{}{
		"filter":  map[string]interface{}{"StructType": structType},
		"options": opts,
	}

	var page ObjectPage
	if err := c.call(ctx, "suix_queryObjects", []interface{}{query, nil, limit}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *client) QueryEvents(ctx context.Context, eventType string, limit int, descending bool) ([]Event, error) {
	query := map[string]interface{}{"MoveEventType": eventType}

	var page EventPage
	if err := c.call(ctx, "suix_queryEvents", []interface{}{query, nil, limit, descending}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *client) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlock, error) {
	opts := map[string]interface{}{"showEvents": false}

	var block TransactionBlock
	if err := c.call(ctx, "sui_getTransactionBlock", []interface{}{digest, opts}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

func (c *client) GetBalance(ctx context.Context, address string) (uint64, error) {
	var balance Balance
	if err := c.call(ctx, "suix_getBalance", []interface{}{address}, &balance); err != nil {
		return 0, err
	}

	total, err := strconv.ParseUint(balance.TotalBalance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid balance %q: %w", balance.TotalBalance, err)
	}
	return total, nil
}

func (c *client) BuildMoveCall(ctx context.Context, signer, packageID, module, function string, typeArgs []string, args []interface{}, gasBudget uint64) (*TransactionBytes, error) {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []interface{}{}
	}

	params := []interface{}{
		signer,
		packageID,
		module,
		function,
		typeArgs,
		args,
		nil, // gas object, let the node pick
		strconv.FormatUint(gasBudget, 10),
	}

	var txBytes TransactionBytes
	if err := c.call(ctx, "unsafe_moveCall", params, &txBytes); err != nil {
		return nil, err
	}
	return &txBytes, nil
}

func (c *client) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (*TransactionBlock, error) {
	opts := map[string]interface{}{"showEffects": true}

	var block TransactionBlock
	if err := c.callOnce(ctx, "sui_executeTransactionBlock", []interface{}{txBytes, signatures, opts, "WaitForLocalExecution"}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}
