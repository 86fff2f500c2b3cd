package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/repo"
)

// ErrAuthentication is returned when the backend refuses the credentials.
var ErrAuthentication = errors.New("authentication failed")

// Options describe how to reach one Odoo database.
type Options struct {
	URL      string
	Database string
	Username string
	Password string
	Protocol string        // ProtocolXMLRPC (default) or ProtocolJSONRPC
	Timeout  time.Duration // 0 → 60s
	Logger   *zap.SugaredLogger
}

// Session: клиент внешнего API одной базы Odoo. uid определяется при первом вызове и
// кешируется до конца жизни процесса.
type Session struct {
	caller   Caller
	url      string
	db       string
	username string
	password string
	uid      int64
	log      *zap.SugaredLogger
}

var _ repo.RPC = (*Session)(nil)

// NewSession builds the transport for opts.Protocol. No network traffic happens here.
func NewSession(opts Options) (*Session, error) {
	base := strings.TrimRight(opts.URL, "/")
	if base == "" {
		return nil, fmt.Errorf("%w: empty Odoo URL", model.ErrConfiguration)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	var caller Caller
	switch strings.ToLower(opts.Protocol) {
	case "", ProtocolXMLRPC:
		// net/rpc не знает про контекст, поэтому таймаут держит транспорт
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = timeout
		c, err := newXMLRPCCaller(base, tr)
		if err != nil {
			return nil, err
		}
		caller = c
	case ProtocolJSONRPC:
		caller = newJSONRPCCaller(base, timeout)
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", model.ErrConfiguration, opts.Protocol)
	}
	return NewSessionWithCaller(opts, caller), nil
}

// NewSessionWithCaller wires a session over an existing caller (used by tests).
func NewSessionWithCaller(opts Options, caller Caller) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Session{
		caller:   caller,
		url:      strings.TrimRight(opts.URL, "/"),
		db:       opts.Database,
		username: opts.Username,
		password: opts.Password,
		log:      log,
	}
}

// Username returns the configured login.
func (s *Session) Username() string { return s.username }

// BaseURL returns the instance URL without a trailing slash.
func (s *Session) BaseURL() string { return s.url }

// Close releases transport resources, if the caller holds any.
func (s *Session) Close() error {
	if c, ok := s.caller.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// UID authenticates on first use and returns the cached user id afterwards.
func (s *Session) UID(ctx context.Context) (int64, error) {
	if s.uid > 0 {
		return s.uid, nil
	}
	res, err := s.caller.Call(ctx, ServiceCommon, "authenticate",
		[]any{s.db, s.username, s.password, map[string]any{}})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	uid, ok := model.ToInt64(res)
	if !ok || uid <= 0 {
		return 0, fmt.Errorf("%w for %s on database %s", ErrAuthentication, s.username, s.db)
	}
	s.uid = uid
	s.log.Debugw("authenticated", "uid", uid, "db", s.db)
	return uid, nil
}

// Execute calls execute_kw(db, uid, password, model, method, args, kwargs).
func (s *Session) Execute(ctx context.Context, modelName, method string, args []any, kwargs map[string]any) (any, error) {
	uid, err := s.UID(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	s.log.Debugw("rpc call", "model", modelName, "method", method)
	res, err := s.caller.Call(ctx, ServiceObject, "execute_kw",
		[]any{s.db, uid, s.password, modelName, method, args, kwargs})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", modelName, method, err)
	}
	return res, nil
}

// Search returns ids of records matching domain.
func (s *Session) Search(ctx context.Context, modelName string, domain model.Domain, opts repo.SearchOptions) ([]int64, error) {
	res, err := s.Execute(ctx, modelName, "search", []any{nonNilDomain(domain)}, searchKwargs(opts, false))
	if err != nil {
		return nil, err
	}
	return toIDs(res)
}

// Read reads ids; fields go as a positional argument, nil means every field.
func (s *Session) Read(ctx context.Context, modelName string, ids []int64, fields []string) ([]model.Record, error) {
	args := []any{ids}
	if fields != nil {
		args = append(args, fields)
	}
	res, err := s.Execute(ctx, modelName, "read", args, nil)
	if err != nil {
		return nil, err
	}
	return toRecords(res)
}

// SearchRead sends the domain positionally and every option as a keyword argument.
func (s *Session) SearchRead(ctx context.Context, modelName string, domain model.Domain, opts repo.SearchOptions) ([]model.Record, error) {
	res, err := s.Execute(ctx, modelName, "search_read", []any{nonNilDomain(domain)}, searchKwargs(opts, true))
	if err != nil {
		return nil, err
	}
	return toRecords(res)
}

// Create inserts one record and returns its id.
func (s *Session) Create(ctx context.Context, modelName string, values map[string]any) (int64, error) {
	res, err := s.Execute(ctx, modelName, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}
	id, ok := model.ToInt64(res)
	if !ok {
		return 0, fmt.Errorf("%s.create: unexpected result %v", modelName, res)
	}
	return id, nil
}

// Write updates ids with values.
func (s *Session) Write(ctx context.Context, modelName string, ids []int64, values map[string]any) (bool, error) {
	res, err := s.Execute(ctx, modelName, "write", []any{ids, values}, nil)
	if err != nil {
		return false, err
	}
	return model.Truthy(res), nil
}

func nonNilDomain(d model.Domain) model.Domain {
	if d == nil {
		return model.Domain{}
	}
	return d
}

func searchKwargs(opts repo.SearchOptions, withFields bool) map[string]any {
	kw := map[string]any{}
	if withFields && opts.Fields != nil {
		kw["fields"] = opts.Fields
	}
	if opts.Limit > 0 {
		kw["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kw["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kw["order"] = opts.Order
	}
	return kw
}

func toIDs(res any) ([]int64, error) {
	list, ok := res.([]any)
	if !ok {
		if res == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected id list %T", res)
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		id, ok := model.ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("unexpected id %v", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toRecords(res any) ([]model.Record, error) {
	list, ok := res.([]any)
	if !ok {
		if res == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected record list %T", res)
	}
	records := make([]model.Record, 0, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected record %T", v)
		}
		records = append(records, model.Record(m))
	}
	return records, nil
}
