package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  jsonrpcParams `json:"params"`
	ID      string        `json:"id"`
}

type jsonrpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type jsonrpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

// jsonrpcCaller posts to Odoo's /jsonrpc endpoint.
type jsonrpcCaller struct {
	client *resty.Client
}

func newJSONRPCCaller(baseURL string, timeout time.Duration) *jsonrpcCaller {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	return &jsonrpcCaller{client: client}
}

func (c *jsonrpcCaller) Call(ctx context.Context, service, method string, args []any) (any, error) {
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  jsonrpcParams{Service: service, Method: method, Args: args},
		ID:      uuid.NewString(),
	}
	resp, err := c.client.R().SetContext(ctx).SetBody(req).Post("/jsonrpc")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("jsonrpc %s.%s: server status %d: %s",
			service, method, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var out jsonrpcResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode jsonrpc response: %w", err)
	}
	if out.Error != nil {
		msg := out.Error.Data.Message
		if msg == "" {
			msg = out.Error.Message
		}
		return nil, &FaultError{Code: out.Error.Code, Message: msg}
	}

	var result any
	if len(out.Result) > 0 {
		dec := json.NewDecoder(bytes.NewReader(out.Result))
		dec.UseNumber()
		if err := dec.Decode(&result); err != nil {
			return nil, fmt.Errorf("decode jsonrpc result: %w", err)
		}
	}
	return normalize(result), nil
}
