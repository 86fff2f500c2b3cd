package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/repo"
	"github.com/semadox/odoo-ninja/internal/odootest"
)

func newJSONSession(t *testing.T, srv *odootest.Server, password string) *Session {
	t.Helper()
	s, err := NewSession(Options{
		URL:      srv.URL + "/",
		Database: odootest.DB,
		Username: odootest.Login,
		Password: password,
		Protocol: ProtocolJSONRPC,
	})
	require.NoError(t, err)
	return s
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"empty url", Options{Protocol: ProtocolJSONRPC}, true},
		{"unknown protocol", Options{URL: "http://odoo", Protocol: "soap"}, true},
		{"default xmlrpc", Options{URL: "http://odoo"}, false},
		{"jsonrpc upper case", Options{URL: "http://odoo", Protocol: "JSONRPC"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://odoo", s.BaseURL())
			_ = s.Close()
		})
	}
}

func TestSession_AuthenticatesOnce(t *testing.T) {
	srv := odootest.New(t)
	srv.Seed("helpdesk.ticket", model.Record{"name": "Printer"})
	s := newJSONSession(t, srv, odootest.Password)

	// конструктор в сеть не ходит
	assert.Empty(t, srv.Calls())

	for i := 0; i < 2; i++ {
		_, err := s.SearchRead(context.Background(), "helpdesk.ticket", nil, repo.SearchOptions{})
		require.NoError(t, err)
	}

	var auth int
	for _, c := range srv.Calls() {
		if c.Service == ServiceCommon {
			auth++
		}
	}
	assert.Equal(t, 1, auth)
	uid, err := s.UID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, odootest.UID, uid)
}

func TestSession_WrongPassword(t *testing.T) {
	srv := odootest.New(t)
	s := newJSONSession(t, srv, "nope")

	_, err := s.Search(context.Background(), "helpdesk.ticket", nil, repo.SearchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Empty(t, srv.CallsTo("helpdesk.ticket", "search"))
}

func TestSession_SearchReadArguments(t *testing.T) {
	srv := odootest.New(t)
	srv.Seed("helpdesk.ticket",
		model.Record{"name": "Printer", "stage_id": []any{1, "New"}},
		model.Record{"name": "Scanner", "stage_id": []any{1, "New"}},
		model.Record{"name": "Mouse", "stage_id": []any{2, "Done"}},
	)
	s := newJSONSession(t, srv, odootest.Password)

	domain := model.Domain{}.And(model.Leaf("stage_id.name", "ilike", "new"))
	recs, err := s.SearchRead(context.Background(), "helpdesk.ticket", domain, repo.SearchOptions{
		Fields: []string{"id", "name"},
		Limit:  1,
		Order:  "id desc",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Scanner", recs[0].String("name"))
	assert.Equal(t, int64(2), recs[0].ID())

	calls := srv.CallsTo("helpdesk.ticket", "search_read")
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 1, "only the domain is positional")
	assert.Equal(t, []any{"id", "name"}, calls[0].Kwargs["fields"])
	assert.EqualValues(t, 1, calls[0].Kwargs["limit"])
	assert.Equal(t, "id desc", calls[0].Kwargs["order"])
	_, hasOffset := calls[0].Kwargs["offset"]
	assert.False(t, hasOffset)
}

func TestSession_ReadFieldsArePositional(t *testing.T) {
	srv := odootest.New(t)
	ids := srv.Seed("project.task", model.Record{"name": "Write docs", "priority": "1"})
	s := newJSONSession(t, srv, odootest.Password)
	ctx := context.Background()

	recs, err := s.Read(ctx, "project.task", ids, []string{"priority"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].String("priority"))
	assert.False(t, recs[0].Has("name"))

	recs, err = s.Read(ctx, "project.task", ids, nil)
	require.NoError(t, err)
	assert.Equal(t, "Write docs", recs[0].String("name"))

	calls := srv.CallsTo("project.task", "read")
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Args, 2)
	assert.Len(t, calls[1].Args, 1)
	assert.Empty(t, calls[1].Kwargs)
}

func TestSession_CreateAndWrite(t *testing.T) {
	srv := odootest.New(t)
	s := newJSONSession(t, srv, odootest.Password)
	ctx := context.Background()

	id, err := s.Create(ctx, "project.project", map[string]any{"name": "Apollo"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	ok, err := s.Write(ctx, "project.project", []int64{id}, map[string]any{"name": "Gemini", "color": 3})
	require.NoError(t, err)
	assert.True(t, ok)

	rec := srv.Record("project.project", id)
	assert.Equal(t, "Gemini", rec.String("name"))
	assert.Equal(t, int64(3), rec["color"])
}

func TestSession_ServerFault(t *testing.T) {
	srv := odootest.New(t)
	srv.FailOn("helpdesk.ticket", "write", "You are not allowed to modify this document")
	s := newJSONSession(t, srv, odootest.Password)

	_, err := s.Write(context.Background(), "helpdesk.ticket", []int64{1}, map[string]any{"name": "x"})
	require.Error(t, err)
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "You are not allowed to modify this document", fault.Message)
	assert.Contains(t, err.Error(), "helpdesk.ticket.write")
}

type stubCaller struct {
	auth  any
	calls int
}

func (c *stubCaller) Call(_ context.Context, service, method string, _ []any) (any, error) {
	c.calls++
	if service == ServiceCommon {
		return c.auth, nil
	}
	return []any{}, nil
}

func TestSession_RejectsNonPositiveUID(t *testing.T) {
	for _, res := range []any{false, int64(0), "2", nil} {
		c := &stubCaller{auth: res}
		s := NewSessionWithCaller(Options{URL: "http://odoo", Username: "bob"}, c)
		_, err := s.UID(context.Background())
		assert.ErrorIs(t, err, ErrAuthentication, "result %v", res)
	}
}

func TestSession_NilArgumentsBecomeEmpty(t *testing.T) {
	srv := odootest.New(t)
	s := newJSONSession(t, srv, odootest.Password)

	res, err := s.Execute(context.Background(), "helpdesk.ticket", "fields_get", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, res)

	calls := srv.CallsTo("helpdesk.ticket", "fields_get")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{}, calls[0].Args)
}
