package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"strings"

	"github.com/kolo/xmlrpc"
)

// xmlrpcCaller talks to /xmlrpc/2/<service>, one client per service.
type xmlrpcCaller struct {
	clients map[string]*xmlrpc.Client
}

func newXMLRPCCaller(baseURL string, transport http.RoundTripper) (*xmlrpcCaller, error) {
	c := &xmlrpcCaller{clients: map[string]*xmlrpc.Client{}}
	for _, svc := range []string{ServiceCommon, ServiceObject} {
		client, err := xmlrpc.NewClient(baseURL+"/xmlrpc/2/"+svc, transport)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("xmlrpc %s endpoint: %w", svc, err)
		}
		c.clients[svc] = client
	}
	return c, nil
}

// Call blocks until the response arrives. net/rpc has no cancellation, so ctx is only
// checked before the request is sent.
func (c *xmlrpcCaller) Call(ctx context.Context, service, method string, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, ok := c.clients[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}
	var reply any
	if err := client.Call(method, args, &reply); err != nil {
		return nil, xmlrpcError(err)
	}
	return normalize(reply), nil
}

// Close releases the underlying rpc clients.
func (c *xmlrpcCaller) Close() error {
	var errs []error
	for _, client := range c.clients {
		errs = append(errs, client.Close())
	}
	return errors.Join(errs...)
}

func xmlrpcError(err error) error {
	// net/rpc flattens faults (and bad HTTP statuses) into a string.
	var se rpc.ServerError
	if errors.As(err, &se) {
		return &FaultError{Message: strings.TrimSpace(string(se))}
	}
	return err
}
