package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Odoo external API services.
const (
	ServiceCommon = "common"
	ServiceObject = "object"
)

// Wire protocols understood by NewSession.
const (
	ProtocolXMLRPC  = "xmlrpc"
	ProtocolJSONRPC = "jsonrpc"
)

// Caller performs a single remote procedure call on one of the external API services.
// The result is already normalised (see normalize).
type Caller interface {
	Call(ctx context.Context, service, method string, args []any) (any, error)
}

// FaultError is a fault reported by the server (access rights, unknown field, ...).
type FaultError struct {
	Code    int
	Message string
}

func (e *FaultError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote fault %d: %s", e.Code, e.Message)
	}
	return "remote fault: " + e.Message
}

// normalize приводит значения, декодированные транспортом, к одному набору типов:
// целые числа → int64, прочие числа → float64, объекты → map[string]any, массивы → []any.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	}
	return v
}
