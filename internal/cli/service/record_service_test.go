package service

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/semadox/odoo-ninja/internal/cli/auth"
	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/repo"
	fsrepo "github.com/semadox/odoo-ninja/internal/cli/repo/fs"
)

// --- Моки порта RPC ---
type mockRPC struct{ mock.Mock }

func (m *mockRPC) Search(ctx context.Context, modelName string, domain model.Domain, opts repo.SearchOptions) ([]int64, error) {
	args := m.Called(modelName, domain, opts)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}
func (m *mockRPC) Read(ctx context.Context, modelName string, ids []int64, fields []string) ([]model.Record, error) {
	args := m.Called(modelName, ids, fields)
	recs, _ := args.Get(0).([]model.Record)
	return recs, args.Error(1)
}
func (m *mockRPC) SearchRead(ctx context.Context, modelName string, domain model.Domain, opts repo.SearchOptions) ([]model.Record, error) {
	args := m.Called(modelName, domain, opts)
	recs, _ := args.Get(0).([]model.Record)
	return recs, args.Error(1)
}
func (m *mockRPC) Create(ctx context.Context, modelName string, values map[string]any) (int64, error) {
	args := m.Called(modelName, values)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockRPC) Write(ctx context.Context, modelName string, ids []int64, values map[string]any) (bool, error) {
	args := m.Called(modelName, ids, values)
	return args.Bool(0), args.Error(1)
}
func (m *mockRPC) Execute(ctx context.Context, modelName, method string, a []any, kw map[string]any) (any, error) {
	args := m.Called(modelName, method, a, kw)
	return args.Get(0), args.Error(1)
}
func (m *mockRPC) Username() string { return "admin" }
func (m *mockRPC) BaseURL() string  { return "https://odoo.example.com" }

var _ repo.RPC = (*mockRPC)(nil)

type mockMessenger struct{ mock.Mock }

func (m *mockMessenger) ResolveDefaultUser(ctx context.Context, login string) (int64, error) {
	args := m.Called(login)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockMessenger) PostMessageAs(ctx context.Context, modelName string, id int64, body string, opts auth.PostOptions) (bool, error) {
	args := m.Called(modelName, id, body, opts)
	return args.Bool(0), args.Error(1)
}

func newSvc() (*Records, *mockRPC, *mockMessenger) {
	r := new(mockRPC)
	msg := new(mockMessenger)
	return NewRecords(r, fsrepo.AttachmentFSStore{}, msg, nil), r, msg
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

// --- Тесты ---
func TestRecords_ListDefaults(t *testing.T) {
	svc, r, _ := newSvc()
	r.On("SearchRead", "helpdesk.ticket", model.Domain(nil), repo.SearchOptions{Limit: 50, Order: "create_date desc"}).
		Return([]model.Record{{"id": int64(1)}}, nil).Once()
	r.On("SearchRead", "project.task", model.Domain{[]any{"name", "ilike", "x"}}, repo.SearchOptions{Fields: []string{"id"}, Limit: 5, Order: "id"}).
		Return([]model.Record{}, nil).Once()

	recs, err := svc.List(context.Background(), "helpdesk.ticket", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = svc.List(context.Background(), "project.task", ListOptions{
		Domain: model.Domain{}.And(model.Leaf("name", "ilike", "x")),
		Limit:  5, Fields: []string{"id"}, Order: "id",
	})
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestRecords_GetNotFound(t *testing.T) {
	svc, r, _ := newSvc()
	r.On("Read", "helpdesk.ticket", []int64{42}, []string(nil)).Return([]model.Record{}, nil).Once()

	_, err := svc.Get(context.Background(), "helpdesk.ticket", 42, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecords_Fields(t *testing.T) {
	svc, r, _ := newSvc()
	r.On("Execute", "project.task", "fields_get", []any(nil), mock.Anything).Return(map[string]any{
		"name":     map[string]any{"type": "char", "string": "Title", "required": true},
		"priority": map[string]any{"type": "selection", "string": "Priority", "selection": []any{[]any{"0", "Low"}, []any{"1", "High"}}},
	}, nil).Once()

	fields, err := svc.Fields(context.Background(), "project.task")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "priority"}, SortedFieldNames(fields))
	assert.True(t, fields["name"].Required)
	assert.Equal(t, "Title", fields["name"].Label)
	assert.Equal(t, [][2]string{{"0", "Low"}, {"1", "High"}}, fields["priority"].Selection)
}

func TestRecords_AddTagIdempotent(t *testing.T) {
	svc, r, _ := newSvc()
	ctx := context.Background()

	r.On("Read", "helpdesk.ticket", []int64{7}, []string{"tag_ids"}).
		Return([]model.Record{{"id": int64(7), "tag_ids": []any{int64(1)}}}, nil).Once()
	r.On("Write", "helpdesk.ticket", []int64{7}, map[string]any{"tag_ids": []any{[]any{6, 0, []int64{1, 3}}}}).
		Return(true, nil).Once()

	ok, err := svc.AddTag(ctx, "helpdesk.ticket", 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// второй вызов: тег уже есть, записи нет
	r.On("Read", "helpdesk.ticket", []int64{7}, []string{"tag_ids"}).
		Return([]model.Record{{"id": int64(7), "tag_ids": []any{int64(1), int64(3)}}}, nil).Once()
	ok, err = svc.AddTag(ctx, "helpdesk.ticket", 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "Write", 1)
}

func TestRecords_Messages(t *testing.T) {
	svc, r, _ := newSvc()
	domain := model.Domain{[]any{"model", "=", "project.task"}, []any{"res_id", "=", int64(9)}}
	r.On("SearchRead", "mail.message", domain, mock.MatchedBy(func(o repo.SearchOptions) bool {
		return o.Order == "date desc" && o.Limit == 10 && len(o.Fields) == 8
	})).Return([]model.Record{
		{"id": int64(2), "author_id": []any{int64(3), "Bob"}, "subtype_id": []any{int64(2), "Note"}, "body": "<p>x</p>"},
		{"id": int64(1), "author_id": false, "email_from": "client@example.com", "message_type": "email"},
	}, nil).Once()

	msgs, err := svc.Messages(context.Background(), "project.task", 9, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Bob", msgs[0].Author())
	assert.Equal(t, "Note", msgs[0].Kind())
	assert.Equal(t, "client@example.com", msgs[1].Author())
	assert.Equal(t, "email", msgs[1].Kind())
}

func TestRecords_AddCommentAndNote(t *testing.T) {
	svc, _, msg := newSvc()
	ctx := context.Background()

	msg.On("PostMessageAs", "helpdesk.ticket", int64(4), "<p><strong>done</strong></p>", auth.PostOptions{UserID: 8}).
		Return(true, nil).Once()
	msg.On("PostMessageAs", "helpdesk.ticket", int64(4), "<p>internal <i>x</i></p>", auth.PostOptions{IsNote: true}).
		Return(true, nil).Once()

	ok, err := svc.AddComment(ctx, "helpdesk.ticket", 4, "**done**", CommentOptions{UserID: 8, Markdown: true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AddNote(ctx, "helpdesk.ticket", 4, "internal <i>x</i>", CommentOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	msg.AssertExpectations(t)
}

func TestRecords_Assign(t *testing.T) {
	svc, r, _ := newSvc()
	r.On("Read", "project.task", []int64{42}, []string{"priority"}).
		Return([]model.Record{{"id": int64(42), "priority": int64(2)}}, nil).Once()
	r.On("Write", "project.task", []int64{42}, map[string]any{"priority": int64(3), "name": "New Title"}).
		Return(true, nil).Once()

	got, err := svc.Assign(context.Background(), "project.task", 42, []string{"priority+=1", "name=New Title"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].Value.Any())
	r.AssertExpectations(t)
}

func TestRecords_AssignStopsOnParseError(t *testing.T) {
	svc, r, _ := newSvc()
	_, err := svc.Assign(context.Background(), "project.task", 42, []string{"name=x", "broken"})
	require.Error(t, err)
	r.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)

	_, err = svc.Assign(context.Background(), "project.task", 42, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestRecords_DownloadAttachment(t *testing.T) {
	dir := t.TempDir()
	svc, r, _ := newSvc()
	ctx := context.Background()

	r.On("Read", "ir.attachment", []int64{5}, []string{"name", "datas"}).
		Return([]model.Record{{"id": int64(5), "name": "report.pdf", "datas": b64("%PDF")}}, nil)
	r.On("Read", "ir.attachment", []int64{6}, []string{"name", "datas"}).
		Return([]model.Record{{"id": int64(6), "name": false, "datas": b64("x")}}, nil)
	r.On("Read", "ir.attachment", []int64{7}, []string{"name", "datas"}).
		Return([]model.Record{{"id": int64(7), "name": "empty.txt", "datas": false}}, nil)
	r.On("Read", "ir.attachment", []int64{8}, []string{"name", "datas"}).
		Return([]model.Record{}, nil)

	path, err := svc.DownloadAttachment(ctx, 5, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), path)
	b, _ := os.ReadFile(path)
	assert.Equal(t, "%PDF", string(b))

	explicit := filepath.Join(dir, "copy.pdf")
	path, err = svc.DownloadAttachment(ctx, 5, explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)

	path, err = svc.DownloadAttachment(ctx, 6, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "attachment_6"), path)

	_, err = svc.DownloadAttachment(ctx, 7, dir)
	assert.ErrorIs(t, err, model.ErrNoData)

	_, err = svc.DownloadAttachment(ctx, 8, dir)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecords_DownloadAttachmentStaysInOutputDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	svc, r, _ := newSvc()
	ctx := context.Background()

	r.On("Read", "ir.attachment", []int64{9}, []string{"name", "datas"}).
		Return([]model.Record{{"id": int64(9), "name": "../../evil.pdf", "datas": b64("x")}}, nil)
	r.On("Read", "ir.attachment", []int64{10}, []string{"name", "datas"}).
		Return([]model.Record{{"id": int64(10), "name": "..", "datas": b64("y")}}, nil)

	path, err := svc.DownloadAttachment(ctx, 9, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.pdf"), path)
	_, err = os.Stat(filepath.Join(root, "evil.pdf"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "file written outside the output directory")

	path, err = svc.DownloadAttachment(ctx, 10, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "attachment_10"), path)
}

func TestRecords_DownloadAllFiltersAndContinues(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	svc, r, _ := newSvc()

	r.On("SearchRead", "ir.attachment", mock.Anything, mock.Anything).Return([]model.Record{
		{"id": int64(1), "name": "a.PDF"},
		{"id": int64(2), "name": "notes.txt"},
		{"id": int64(3), "name": "broken.pdf"},
		{"id": int64(4), "name": "b.pdf"},
	}, nil).Once()
	r.On("Read", "ir.attachment", []int64{1}, mock.Anything).Return([]model.Record{{"id": int64(1), "name": "a.PDF", "datas": b64("1")}}, nil)
	r.On("Read", "ir.attachment", []int64{3}, mock.Anything).Return(nil, errors.New("access denied"))
	r.On("Read", "ir.attachment", []int64{4}, mock.Anything).Return([]model.Record{{"id": int64(4), "name": "b.pdf", "datas": b64("4")}}, nil)

	results, err := svc.DownloadAll(context.Background(), "helpdesk.ticket", 42, dir, ".pdf")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Error(t, results[1].Err)
	assert.Equal(t, int64(3), results[1].AttachmentID)

	paths := Succeeded(results)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}, paths)
	r.AssertNotCalled(t, "Read", "ir.attachment", []int64{2}, mock.Anything)
}

func TestRecords_CreateAttachment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "screenshot.png")
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o600))
	svc, r, _ := newSvc()
	ctx := context.Background()

	r.On("Create", "ir.attachment", map[string]any{
		"name": "screenshot.png", "datas": b64("png"), "res_model": "project.task", "res_id": int64(42),
	}).Return(int64(11), nil).Once()
	r.On("Create", "ir.attachment", mock.MatchedBy(func(v map[string]any) bool { return v["name"] == "Shot.png" })).
		Return(int64(12), nil).Once()

	id, err := svc.CreateAttachment(ctx, "project.task", 42, file, "")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	id, err = svc.CreateAttachment(ctx, "project.task", 42, file, "Shot.png")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = svc.CreateAttachment(ctx, "project.task", 42, filepath.Join(dir, "nope"), "")
	assert.ErrorIs(t, err, model.ErrFileNotFound)
	_, err = svc.CreateAttachment(ctx, "project.task", 42, dir, "")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestRecords_URL(t *testing.T) {
	svc, r, _ := newSvc()
	assert.Equal(t, "https://odoo.example.com/web#id=42&model=helpdesk.ticket&view_type=form", svc.URL("helpdesk.ticket", 42))
	r.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
}

func TestFilterByExtension(t *testing.T) {
	atts := []model.Attachment{{Name: "a.pdf"}, {Name: "B.PDF"}, {Name: "pdf"}, {Name: "c.pdf.txt"}}
	assert.Len(t, FilterByExtension(atts, "PDF"), 2)
	assert.Len(t, FilterByExtension(atts, ""), 4)
}
