package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRPC_Envelope(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jsonrpc", r.URL.Path)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"id":3,"amount":2.5,"ok":true}]}`))
	}))
	defer ts.Close()

	c := newJSONRPCCaller(ts.URL, 5*time.Second)
	res, err := c.Call(context.Background(), ServiceObject, "execute_kw", []any{"db", 2, "pw", "res.partner", "read", []any{[]int64{3}}, map[string]any{}})
	require.NoError(t, err)

	assert.Equal(t, "2.0", got["jsonrpc"])
	assert.Equal(t, "call", got["method"])
	assert.NotEmpty(t, got["id"])
	params := got["params"].(map[string]any)
	assert.Equal(t, "object", params["service"])
	assert.Equal(t, "execute_kw", params["method"])
	assert.Len(t, params["args"], 7)

	rows := res.([]any)
	row := rows[0].(map[string]any)
	assert.Equal(t, int64(3), row["id"])
	assert.Equal(t, 2.5, row["amount"])
	assert.Equal(t, true, row["ok"])
}

func TestJSONRPC_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		fault   bool
	}{
		{"data message", 200, `{"jsonrpc":"2.0","id":"x","error":{"code":200,"message":"Odoo Server Error","data":{"message":"Invalid field 'foo'"}}}`, "Invalid field 'foo'", true},
		{"bare message", 200, `{"jsonrpc":"2.0","id":"x","error":{"code":100,"message":"Session expired"}}`, "Session expired", true},
		{"http status", 502, `bad gateway`, "server status 502", false},
		{"garbage", 200, `<html>`, "decode jsonrpc response", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := newJSONRPCCaller(ts.URL, time.Second).Call(context.Background(), ServiceCommon, "version", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			var fault *FaultError
			assert.Equal(t, tt.fault, errors.As(err, &fault))
		})
	}
}

func TestNormalize(t *testing.T) {
	in := []any{json.Number("4"), json.Number("4.25"), 7, map[string]any{"n": json.Number("-1")}}
	out := normalize(in).([]any)
	assert.Equal(t, int64(4), out[0])
	assert.Equal(t, 4.25, out[1])
	assert.Equal(t, int64(7), out[2])
	assert.Equal(t, int64(-1), out[3].(map[string]any)["n"])
}
