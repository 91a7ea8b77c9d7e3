package net

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"coin-checkpoints/config"
	"coin-checkpoints/types"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	GetBlockCountMethod  = "getblockcount"
	GetBlockHashMethod   = "getblockhash"
	GetBlockMethod       = "getblock"
	GetTransactionMethod = "gettransaction"
)

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     uint64          `json:"id"`
}

// Client talks to the coin daemon over JSON-RPC with HTTP basic auth.
type Client struct {
	client *resty.Client
	nextID atomic.Uint64
}

func New(cfg *config.NetConfig) *Client {
	return NewWithURL(cfg.URL(), cfg.User, cfg.Password)
}

// The daemon serves plain HTTP on loopback, so resty's basic-auth-over-HTTP
// warning is disabled and its remaining output goes to the app log.
func NewWithURL(url, user, password string) *Client {
	client := resty.New().
		SetLogger(zap.S().Named("[net]")).
		SetDisableWarn(true).
		SetBaseURL(url).
		SetBasicAuth(user, password).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{client: client}
}

func (c *Client) GetBlockCount() (uint64, error) {
	var count uint64
	err := c.call(GetBlockCountMethod, &count)
	return count, err
}

func (c *Client) GetBlockHash(height uint64) (string, error) {
	var hash string
	err := c.call(GetBlockHashMethod, &hash, height)
	return hash, err
}

func (c *Client) GetBlock(hash string) (*types.Block, error) {
	var block types.Block
	if err := c.call(GetBlockMethod, &block, hash); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetTransaction reports any failure of the lookup as false.
func (c *Client) GetTransaction(txID string) (*types.Transaction, bool) {
	var tx types.Transaction
	if err := c.call(GetTransactionMethod, &tx, txID); err != nil {
		return nil, false
	}
	return &tx, true
}

func (c *Client) call(method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	resp, err := c.client.R().
		SetBody(&request{
			JSONRPC: "1.0",
			ID:      c.nextID.Add(1),
			Method:  method,
			Params:  params,
		}).
		Post("/")
	if err != nil {
		return errors.Wrapf(err, "%s: couldn't connect to server", method)
	}

	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		return errors.Errorf("%s: incorrect rpcuser or rpcpassword (authorization failed)", method)
	}
	// The daemon reports RPC faults with 400, 404 and 500 and a JSON body.
	if status >= 400 && status != http.StatusBadRequest &&
		status != http.StatusNotFound && status != http.StatusInternalServerError {
		return errors.Errorf("%s: server returned HTTP error %d", method, status)
	}

	body := resp.Body()
	if len(body) == 0 {
		return errors.Errorf("%s: no response from server", method)
	}

	var reply response
	if err := json.Unmarshal(body, &reply); err != nil {
		return errors.Wrapf(err, "%s: couldn't parse reply from server", method)
	}
	if reply.Error != nil {
		return errors.WithMessage(reply.Error, method)
	}
	if len(reply.Result) == 0 || string(reply.Result) == "null" {
		return errors.Errorf("%s: empty result", method)
	}

	if err := json.Unmarshal(reply.Result, result); err != nil {
		return errors.Wrapf(err, "%s: malformed result", method)
	}
	return nil
}
