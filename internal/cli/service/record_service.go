package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/semadox/odoo-ninja/internal/cli/assign"
	"github.com/semadox/odoo-ninja/internal/cli/auth"
	"github.com/semadox/odoo-ninja/internal/cli/htmltext"
	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/repo"
)

const (
	messageModel    = "mail.message"
	attachmentModel = "ir.attachment"

	DefaultListLimit = 50
	DefaultListOrder = "create_date desc"
)

var (
	messageFields    = []string{"id", "date", "author_id", "body", "subject", "message_type", "subtype_id", "email_from"}
	attachmentFields = []string{"id", "name", "file_size", "mimetype", "create_date"}
	tagFields        = []string{"id", "name", "color"}
	fieldAttributes  = []string{"string", "type", "required", "readonly", "help", "relation", "selection"}
)

// RecordService описывает операции над записями любой модели Odoo.
type RecordService interface {
	List(ctx context.Context, modelName string, opts ListOptions) ([]model.Record, error)
	Get(ctx context.Context, modelName string, id int64, fields []string) (model.Record, error)
	Fields(ctx context.Context, modelName string) (map[string]model.FieldMeta, error)
	SetFields(ctx context.Context, modelName string, id int64, values map[string]any) (bool, error)
	Assign(ctx context.Context, modelName string, id int64, tokens []string) ([]assign.Assignment, error)

	ListTags(ctx context.Context, tagModel string) ([]model.Tag, error)
	AddTag(ctx context.Context, modelName string, id, tagID int64) (bool, error)

	Messages(ctx context.Context, modelName string, id int64, limit int) ([]model.Message, error)
	AddComment(ctx context.Context, modelName string, id int64, text string, opts CommentOptions) (bool, error)
	AddNote(ctx context.Context, modelName string, id int64, text string, opts CommentOptions) (bool, error)
	ResolveUser(ctx context.Context, login string) (int64, error)

	Attachments(ctx context.Context, modelName string, id int64) ([]model.Attachment, error)
	DownloadAttachment(ctx context.Context, attachmentID int64, output string) (string, error)
	DownloadAll(ctx context.Context, modelName string, id int64, outputDir, ext string) ([]DownloadResult, error)
	CreateAttachment(ctx context.Context, modelName string, id int64, filePath, name string) (int64, error)

	URL(modelName string, id int64) string
}

// Messenger posts chatter messages; implemented by auth.Poster.
type Messenger interface {
	ResolveDefaultUser(ctx context.Context, login string) (int64, error)
	PostMessageAs(ctx context.Context, modelName string, id int64, body string, opts auth.PostOptions) (bool, error)
}

// ListOptions for List. Zero Limit means DefaultListLimit, a negative one means no limit.
type ListOptions struct {
	Domain model.Domain
	Limit  int
	Fields []string
	Order  string
}

// CommentOptions for AddComment and AddNote.
type CommentOptions struct {
	UserID   int64 // 0 → configured default user
	Markdown bool
}

// Records implements RecordService over the RPC port.
type Records struct {
	rpc   repo.RPC
	files repo.AttachmentStore
	msg   Messenger
	log   *zap.SugaredLogger
}

var _ RecordService = (*Records)(nil)

// NewRecords конструктор сервиса записей.
func NewRecords(rpc repo.RPC, files repo.AttachmentStore, msg Messenger, log *zap.SugaredLogger) *Records {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Records{rpc: rpc, files: files, msg: msg, log: log}
}

// List searches and reads records in one round trip.
func (s *Records) List(ctx context.Context, modelName string, opts ListOptions) ([]model.Record, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	order := opts.Order
	if order == "" {
		order = DefaultListOrder
	}
	return s.rpc.SearchRead(ctx, modelName, opts.Domain, repo.SearchOptions{
		Fields: opts.Fields,
		Limit:  limit,
		Order:  order,
	})
}

// Get reads one record; nil fields means all of them.
func (s *Records) Get(ctx context.Context, modelName string, id int64, fields []string) (model.Record, error) {
	recs, err := s.rpc.Read(ctx, modelName, []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s %d", model.ErrNotFound, modelName, id)
	}
	return recs[0], nil
}

// Fields returns the field metadata of a model keyed by field name.
func (s *Records) Fields(ctx context.Context, modelName string) (map[string]model.FieldMeta, error) {
	res, err := s.rpc.Execute(ctx, modelName, "fields_get", nil, map[string]any{"attributes": fieldAttributes})
	if err != nil {
		return nil, err
	}
	raw, ok := res.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s.fields_get: unexpected result %T", modelName, res)
	}
	out := make(map[string]model.FieldMeta, len(raw))
	for name, v := range raw {
		m, _ := v.(map[string]any)
		out[name] = model.FieldMetaFromMap(name, m)
	}
	return out, nil
}

// SetFields writes values to one record.
func (s *Records) SetFields(ctx context.Context, modelName string, id int64, values map[string]any) (bool, error) {
	return s.rpc.Write(ctx, modelName, []int64{id}, values)
}

// Assign parses "field<op>value" tokens and writes all values in one call.
func (s *Records) Assign(ctx context.Context, modelName string, id int64, tokens []string) ([]assign.Assignment, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no field assignments given", model.ErrInvalidArgument)
	}
	out := make([]assign.Assignment, 0, len(tokens))
	values := make(map[string]any, len(tokens))
	for _, tok := range tokens {
		a, err := assign.Parse(ctx, s, modelName, id, tok)
		if err != nil {
			return nil, err
		}
		values[a.Field] = a.Value.Any()
		out = append(out, a)
	}
	ok, err := s.SetFields(ctx, modelName, id, values)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s %d: update was not applied", modelName, id)
	}
	return out, nil
}

// ListTags lists a tag model ordered by name.
func (s *Records) ListTags(ctx context.Context, tagModel string) ([]model.Tag, error) {
	recs, err := s.rpc.SearchRead(ctx, tagModel, nil, repo.SearchOptions{Fields: tagFields, Order: "name"})
	if err != nil {
		return nil, err
	}
	tags := make([]model.Tag, 0, len(recs))
	for _, r := range recs {
		tags = append(tags, model.TagFromRecord(r))
	}
	return tags, nil
}

// AddTag appends tagID to tag_ids and writes the whole list back with a (6, 0, ids) command.
// A tag that is already there is a success without a write.
func (s *Records) AddTag(ctx context.Context, modelName string, id, tagID int64) (bool, error) {
	rec, err := s.Get(ctx, modelName, id, []string{"tag_ids"})
	if err != nil {
		return false, err
	}
	ids := rec.IDs("tag_ids")
	for _, t := range ids {
		if t == tagID {
			return true, nil
		}
	}
	ids = append(ids, tagID)
	return s.SetFields(ctx, modelName, id, map[string]any{
		"tag_ids": []any{[]any{6, 0, ids}},
	})
}

// Messages returns the chatter of a record, newest first. limit <= 0 means all.
func (s *Records) Messages(ctx context.Context, modelName string, id int64, limit int) ([]model.Message, error) {
	domain := model.Domain{}.And(
		model.Leaf("model", "=", modelName),
		model.Leaf("res_id", "=", id),
	)
	recs, err := s.rpc.SearchRead(ctx, messageModel, domain, repo.SearchOptions{
		Fields: messageFields,
		Order:  "date desc",
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, 0, len(recs))
	for _, r := range recs {
		msgs = append(msgs, model.MessageFromRecord(r))
	}
	return msgs, nil
}

// AddComment posts a customer-visible message.
func (s *Records) AddComment(ctx context.Context, modelName string, id int64, text string, opts CommentOptions) (bool, error) {
	return s.post(ctx, modelName, id, text, opts, false)
}

// AddNote posts an internal note.
func (s *Records) AddNote(ctx context.Context, modelName string, id int64, text string, opts CommentOptions) (bool, error) {
	return s.post(ctx, modelName, id, text, opts, true)
}

func (s *Records) post(ctx context.Context, modelName string, id int64, text string, opts CommentOptions, note bool) (bool, error) {
	body, err := htmltext.ToHTML(text, opts.Markdown)
	if err != nil {
		return false, err
	}
	return s.msg.PostMessageAs(ctx, modelName, id, body, auth.PostOptions{UserID: opts.UserID, IsNote: note})
}

// ResolveUser maps a login to a user id.
func (s *Records) ResolveUser(ctx context.Context, login string) (int64, error) {
	return s.msg.ResolveDefaultUser(ctx, login)
}

// Attachments lists attachment metadata of a record; content is not fetched.
func (s *Records) Attachments(ctx context.Context, modelName string, id int64) ([]model.Attachment, error) {
	domain := model.Domain{}.And(
		model.Leaf("res_model", "=", modelName),
		model.Leaf("res_id", "=", id),
	)
	recs, err := s.rpc.SearchRead(ctx, attachmentModel, domain, repo.SearchOptions{Fields: attachmentFields})
	if err != nil {
		return nil, err
	}
	out := make([]model.Attachment, 0, len(recs))
	for _, r := range recs {
		out = append(out, model.AttachmentFromRecord(r))
	}
	return out, nil
}

// DownloadAttachment fetches one attachment and writes it to output (see AttachmentStore.ResolvePath).
func (s *Records) DownloadAttachment(ctx context.Context, attachmentID int64, output string) (string, error) {
	recs, err := s.rpc.Read(ctx, attachmentModel, []int64{attachmentID}, []string{"name", "datas"})
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("%w: attachment %d", model.ErrNotFound, attachmentID)
	}
	att := recs[0]
	name := filepath.Base(att.String("name"))
	// имя приходит с сервера: без каталогов, чтобы не выйти за пределы output
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = fmt.Sprintf("attachment_%d", attachmentID)
	}
	data := att.String("datas")
	if data == "" {
		return "", fmt.Errorf("%w: attachment %d", model.ErrNoData, attachmentID)
	}
	path, err := s.files.ResolvePath(output, name)
	if err != nil {
		return "", err
	}
	n, err := s.files.SaveBase64(path, data)
	if err != nil {
		return "", err
	}
	s.log.Debugw("attachment saved", "id", attachmentID, "path", path, "bytes", n)
	return path, nil
}

// DownloadResult is the outcome of one attachment in DownloadAll.
type DownloadResult struct {
	AttachmentID int64
	Name         string
	Path         string
	Err          error
}

// Succeeded returns the paths of the downloads that worked, in order.
func Succeeded(results []DownloadResult) []string {
	var paths []string
	for _, r := range results {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// DownloadAll downloads every attachment of a record, optionally only those whose name ends
// with .ext (case-insensitive). A failed attachment is logged and recorded, the rest continue.
func (s *Records) DownloadAll(ctx context.Context, modelName string, id int64, outputDir, ext string) ([]DownloadResult, error) {
	if err := s.files.EnsureDir(outputDir); err != nil {
		return nil, err
	}
	atts, err := s.Attachments(ctx, modelName, id)
	if err != nil {
		return nil, err
	}
	atts = FilterByExtension(atts, ext)

	results := make([]DownloadResult, 0, len(atts))
	for _, att := range atts {
		path, err := s.DownloadAttachment(ctx, att.ID, outputDir)
		if err != nil {
			s.log.Warnw("failed to download attachment", "id", att.ID, "name", att.Name, "error", err)
		}
		results = append(results, DownloadResult{AttachmentID: att.ID, Name: att.Name, Path: path, Err: err})
	}
	return results, nil
}

// FilterByExtension keeps attachments named *.ext; a leading dot in ext is ignored.
func FilterByExtension(atts []model.Attachment, ext string) []model.Attachment {
	ext = strings.ToLower(strings.TrimLeft(ext, "."))
	if ext == "" {
		return atts
	}
	var out []model.Attachment
	for _, a := range atts {
		if strings.HasSuffix(strings.ToLower(a.Name), "."+ext) {
			out = append(out, a)
		}
	}
	return out
}

// CreateAttachment uploads a local file to a record. Empty name means the file's base name.
func (s *Records) CreateAttachment(ctx context.Context, modelName string, id int64, filePath, name string) (int64, error) {
	base, data, err := s.files.LoadBase64(filePath)
	if err != nil {
		return 0, err
	}
	if name == "" {
		name = base
	}
	return s.rpc.Create(ctx, attachmentModel, map[string]any{
		"name":      name,
		"datas":     data,
		"res_model": modelName,
		"res_id":    id,
	})
}

// URL returns the web client form link of a record.
func (s *Records) URL(modelName string, id int64) string {
	return fmt.Sprintf("%s/web#id=%d&model=%s&view_type=form", strings.TrimRight(s.rpc.BaseURL(), "/"), id, modelName)
}

// SortedFieldNames returns the keys of a Fields result in alphabetical order.
func SortedFieldNames(fields map[string]model.FieldMeta) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
