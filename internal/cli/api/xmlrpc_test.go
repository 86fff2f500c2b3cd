package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semadox/odoo-ninja/internal/cli/repo"
)

const (
	xmlUID = `<?xml version="1.0"?>
<methodResponse><params><param><value><int>7</int></value></param></params></methodResponse>`

	xmlTickets = `<?xml version="1.0"?>
<methodResponse><params><param><value><array><data>
<value><struct>
<member><name>id</name><value><int>5</int></value></member>
<member><name>name</name><value><string>Printer on fire</string></value></member>
<member><name>stage_id</name><value><array><data><value><int>1</int></value><value><string>New</string></value></data></array></value></member>
<member><name>user_id</name><value><boolean>0</boolean></value></member>
<member><name>planned_hours</name><value><double>1.5</double></value></member>
</struct></value>
</data></array></value></param></params></methodResponse>`

	xmlFault = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>1</int></value></member>
<member><name>faultString</name><value><string>Access Denied</string></value></member>
</struct></value></fault></methodResponse>`
)

// xmlBackend answers each endpoint with a canned document and keeps request bodies.
type xmlBackend struct {
	mu     sync.Mutex
	object string
	bodies map[string][]string
}

func (b *xmlBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies[r.URL.Path] = append(b.bodies[r.URL.Path], string(body))
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	switch r.URL.Path {
	case "/xmlrpc/2/common":
		_, _ = io.WriteString(w, xmlUID)
	case "/xmlrpc/2/object":
		_, _ = io.WriteString(w, b.object)
	default:
		http.NotFound(w, r)
	}
}

func newXMLSession(t *testing.T, object string) (*Session, *xmlBackend) {
	t.Helper()
	b := &xmlBackend{object: object, bodies: map[string][]string{}}
	ts := httptest.NewServer(b)
	t.Cleanup(ts.Close)

	s, err := NewSession(Options{URL: ts.URL, Database: "prod", Username: "admin", Password: "pw"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, b
}

func TestXMLRPC_SearchReadDecodesValues(t *testing.T) {
	s, b := newXMLSession(t, xmlTickets)

	recs, err := s.SearchRead(context.Background(), "helpdesk.ticket", nil, repo.SearchOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, int64(5), r.ID())
	assert.Equal(t, "Printer on fire", r.String("name"))
	id, name, ok := r.Many2One("stage_id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "New", name)
	assert.Equal(t, false, r["user_id"])
	assert.Equal(t, 1.5, r["planned_hours"])

	require.Len(t, b.bodies["/xmlrpc/2/common"], 1)
	assert.Contains(t, b.bodies["/xmlrpc/2/common"][0], "<methodName>authenticate</methodName>")
	object := b.bodies["/xmlrpc/2/object"][0]
	assert.Contains(t, object, "<methodName>execute_kw</methodName>")
	assert.Contains(t, object, "<string>helpdesk.ticket</string>")
	assert.Contains(t, object, "<string>search_read</string>")
	assert.Contains(t, object, "<name>limit</name>")
}

func TestXMLRPC_FaultBecomesFaultError(t *testing.T) {
	s, _ := newXMLSession(t, xmlFault)

	_, err := s.Write(context.Background(), "helpdesk.ticket", []int64{1}, map[string]any{"name": "x"})
	require.Error(t, err)
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.True(t, strings.Contains(fault.Message, "Access Denied"), fault.Message)
}

func TestXMLRPC_CanceledContext(t *testing.T) {
	s, b := newXMLSession(t, xmlTickets)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.UID(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.bodies)
}
