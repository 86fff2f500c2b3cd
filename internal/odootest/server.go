// Package odootest provides an in-process fake of Odoo's /jsonrpc endpoint for tests.
package odootest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

// Default credentials accepted by a new server.
const (
	DB       = "test"
	Login    = "admin"
	Password = "secret"
	UID      = int64(2)
)

// Call is one execute_kw (or common) call received by the server.
type Call struct {
	Service string
	Method  string // execute_kw method name for object calls, e.g. "search_read"
	Model   string
	Args    []any
	Kwargs  map[string]any
}

// Server is a fake Odoo backend holding records in memory.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	models map[string]map[int64]model.Record
	fields map[string]map[string]any
	nextID map[string]int64
	faults map[string]string
	calls  []Call
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		models: map[string]map[int64]model.Record{},
		fields: map[string]map[string]any{},
		nextID: map[string]int64{},
		faults: map[string]string{},
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/jsonrpc", s.handleJSONRPC)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Seed stores records; records without an id get the next free one.
func (s *Server) Seed(modelName string, records ...model.Record) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		cp := normalize(copyRecord(r)).(map[string]any)
		id, ok := model.ToInt64(cp["id"])
		if !ok || id <= 0 {
			id = s.allocID(modelName)
		} else if id >= s.nextID[modelName] {
			s.nextID[modelName] = id + 1
		}
		cp["id"] = id
		s.table(modelName)[id] = model.Record(cp)
		ids = append(ids, id)
	}
	return ids
}

// SetFieldsMeta sets the fields_get answer for a model. Once set, reading unknown fields faults.
func (s *Server) SetFieldsMeta(modelName string, meta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[modelName] = meta
}

// FailOn makes every call of method on modelName return a server fault.
func (s *Server) FailOn(modelName, method, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[modelName+"."+method] = message
}

// Record returns a copy of a stored record or nil.
func (s *Server) Record(modelName string, id int64) model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.table(modelName)[id]
	if !ok {
		return nil
	}
	return copyRecord(r)
}

// Records returns copies of all records of a model ordered by id.
func (s *Server) Records(modelName string) []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Record, 0)
	for _, id := range s.sortedIDs(modelName) {
		out = append(out, copyRecord(s.table(modelName)[id]))
	}
	return out
}

// Calls returns every call received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo filters Calls by model and method.
func (s *Server) CallsTo(modelName, method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Model == modelName && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Params struct {
		Service string `json:"service"`
		Method  string `json:"method"`
		Args    []any  `json:"args"`
	} `json:"params"`
}

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	args, _ := normalize(req.Params.Args).([]any)

	result, err := s.dispatch(req.Params.Service, req.Params.Method, args)

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if err != nil {
		f := rpcFault{Code: 200, Message: "Odoo Server Error"}
		f.Data.Name = "odoo.exceptions.UserError"
		f.Data.Message = err.Error()
		resp["error"] = f
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) dispatch(service, method string, args []any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch service {
	case "common":
		s.calls = append(s.calls, Call{Service: service, Method: method, Args: args})
		switch method {
		case "authenticate":
			if len(args) >= 3 && args[0] == DB && args[1] == Login && args[2] == Password {
				return UID, nil
			}
			return false, nil
		case "version":
			return map[string]any{"server_version": "17.0"}, nil
		}
		return nil, fmt.Errorf("unknown common method %s", method)
	case "object":
		if method != "execute_kw" || len(args) < 5 {
			return nil, fmt.Errorf("unsupported object call %s", method)
		}
		uid, _ := model.ToInt64(args[1])
		if args[0] != DB || uid != UID || args[2] != Password {
			return nil, fmt.Errorf("Access Denied")
		}
		modelName, _ := args[3].(string)
		mm, _ := args[4].(string)
		var pos []any
		if len(args) > 5 {
			pos, _ = args[5].([]any)
		}
		kw := map[string]any{}
		if len(args) > 6 {
			if m, ok := args[6].(map[string]any); ok {
				kw = m
			}
		}
		s.calls = append(s.calls, Call{Service: service, Method: mm, Model: modelName, Args: pos, Kwargs: kw})
		if msg, ok := s.faults[modelName+"."+mm]; ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return s.execute(modelName, mm, pos, kw)
	}
	return nil, fmt.Errorf("unknown service %s", service)
}

func (s *Server) execute(modelName, method string, args []any, kw map[string]any) (any, error) {
	switch method {
	case "search":
		ids := s.match(modelName, argDomain(args), kw)
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out, nil
	case "search_read":
		ids := s.match(modelName, argDomain(args), kw)
		return s.read(modelName, ids, stringList(kw["fields"]))
	case "read":
		if len(args) == 0 {
			return nil, fmt.Errorf("read: missing ids")
		}
		var fields []string
		if len(args) > 1 {
			fields = stringList(args[1])
		}
		return s.read(modelName, intList(args[0]), fields)
	case "create":
		if len(args) == 0 {
			return nil, fmt.Errorf("create: missing values")
		}
		values, _ := args[0].(map[string]any)
		id := s.allocID(modelName)
		rec := model.Record{"id": id}
		s.apply(rec, values)
		s.table(modelName)[id] = rec
		return id, nil
	case "write":
		if len(args) < 2 {
			return nil, fmt.Errorf("write: missing arguments")
		}
		values, _ := args[1].(map[string]any)
		for _, id := range intList(args[0]) {
			rec, ok := s.table(modelName)[id]
			if !ok {
				return nil, fmt.Errorf("Record does not exist or has been deleted. (Record: %s(%d,))", modelName, id)
			}
			s.apply(rec, values)
		}
		return true, nil
	case "fields_get":
		if meta, ok := s.fields[modelName]; ok {
			return meta, nil
		}
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("The method '%s' does not exist on the model '%s'", method, modelName)
}

// apply stores values, resolving x2many commands [(6, 0, ids)] to a plain id list.
func (s *Server) apply(rec model.Record, values map[string]any) {
	for k, v := range values {
		if cmds, ok := v.([]any); ok && len(cmds) > 0 {
			if cmd, ok := cmds[0].([]any); ok && len(cmd) == 3 {
				if code, _ := model.ToInt64(cmd[0]); code == 6 {
					ids := []any{}
					for _, id := range intList(cmd[2]) {
						ids = append(ids, id)
					}
					rec[k] = ids
					continue
				}
			}
		}
		rec[k] = v
	}
}

func (s *Server) read(modelName string, ids []int64, fields []string) (any, error) {
	if meta, ok := s.fields[modelName]; ok {
		for _, f := range fields {
			if _, known := meta[f]; !known && f != "id" {
				return nil, fmt.Errorf("Invalid field '%s' on model '%s'", f, modelName)
			}
		}
	}
	out := []any{}
	for _, id := range ids {
		rec, ok := s.table(modelName)[id]
		if !ok {
			continue
		}
		if fields == nil {
			out = append(out, map[string]any(copyRecord(rec)))
			continue
		}
		row := map[string]any{"id": id}
		for _, f := range fields {
			if v, ok := rec[f]; ok {
				row[f] = v
			} else {
				row[f] = false
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Server) match(modelName string, domain []any, kw map[string]any) []int64 {
	var ids []int64
	for _, id := range s.sortedIDs(modelName) {
		if matches(s.table(modelName)[id], domain) {
			ids = append(ids, id)
		}
	}
	if order, _ := kw["order"].(string); order != "" {
		sortByOrder(s.table(modelName), ids, order)
	}
	if off, ok := model.ToInt64(kw["offset"]); ok && off > 0 {
		if int(off) >= len(ids) {
			ids = nil
		} else {
			ids = ids[off:]
		}
	}
	if lim, ok := model.ToInt64(kw["limit"]); ok && lim > 0 && int(lim) < len(ids) {
		ids = ids[:lim]
	}
	return ids
}

// matches evaluates an implicit-AND domain of [field, op, value] leaves.
func matches(rec model.Record, domain []any) bool {
	for _, el := range domain {
		leaf, ok := el.([]any)
		if !ok || len(leaf) != 3 {
			continue // "&" and friends
		}
		path, _ := leaf[0].(string)
		op, _ := leaf[1].(string)
		if !compare(fieldValue(rec, path), op, leaf[2]) {
			return false
		}
	}
	return true
}

func fieldValue(rec model.Record, path string) any {
	field, sub, _ := strings.Cut(path, ".")
	v := rec[field]
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return v
	}
	name, isName := pair[1].(string)
	if !isName {
		return v
	}
	if sub == "name" {
		return name
	}
	return pair[0]
}

func compare(got any, op string, want any) bool {
	switch op {
	case "=", "==":
		return equal(got, want)
	case "!=":
		return !equal(got, want)
	case "ilike":
		return strings.Contains(strings.ToLower(fmt.Sprint(got)), strings.ToLower(fmt.Sprint(want)))
	case "in":
		list, _ := want.([]any)
		for _, w := range list {
			if equal(got, w) {
				return true
			}
		}
	}
	return false
}

func equal(a, b any) bool {
	fa, okA := model.ToFloat64(a)
	fb, okB := model.ToFloat64(b)
	if okA && okB {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func sortByOrder(table map[int64]model.Record, ids []int64, order string) {
	parts := strings.Fields(strings.Split(order, ",")[0])
	if len(parts) == 0 {
		return
	}
	field := parts[0]
	desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := table[ids[i]][field], table[ids[j]][field]
		var less bool
		fa, okA := model.ToFloat64(a)
		fb, okB := model.ToFloat64(b)
		if okA && okB {
			less = fa < fb
		} else {
			less = fmt.Sprint(a) < fmt.Sprint(b)
		}
		if desc {
			return !less && fmt.Sprint(a) != fmt.Sprint(b)
		}
		return less
	})
}

func (s *Server) table(modelName string) map[int64]model.Record {
	t, ok := s.models[modelName]
	if !ok {
		t = map[int64]model.Record{}
		s.models[modelName] = t
	}
	return t
}

func (s *Server) allocID(modelName string) int64 {
	if s.nextID[modelName] == 0 {
		s.nextID[modelName] = 1
	}
	id := s.nextID[modelName]
	s.nextID[modelName] = id + 1
	return id
}

func (s *Server) sortedIDs(modelName string) []int64 {
	ids := make([]int64, 0, len(s.table(modelName)))
	for id := range s.table(modelName) {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func argDomain(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	d, _ := args[0].([]any)
	return d
}

func intList(v any) []int64 {
	list, _ := v.([]any)
	out := make([]int64, 0, len(list))
	for _, x := range list {
		if id, ok := model.ToInt64(x); ok {
			out = append(out, id)
		}
	}
	return out
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, x := range list {
		out = append(out, fmt.Sprint(x))
	}
	return out
}

func copyRecord(r map[string]any) model.Record {
	// глубокая копия через JSON, чтобы тесты не делили срезы с сервером
	b, _ := json.Marshal(r)
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	_ = dec.Decode(&out)
	return model.Record(normalize(out).(map[string]any))
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case int:
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
	case model.Record:
		return normalize(map[string]any(t))
	}
	return v
}
