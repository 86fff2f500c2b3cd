package model

// Attachment: метаданные ir.attachment без содержимого.
type Attachment struct {
	ID         int64
	Name       string
	FileSize   int64
	MimeType   string
	CreateDate string
}

// AttachmentFromRecord decodes an ir.attachment metadata row.
func AttachmentFromRecord(r Record) Attachment {
	size, _ := r.Int("file_size")
	return Attachment{
		ID:         r.ID(),
		Name:       r.String("name"),
		FileSize:   size,
		MimeType:   r.String("mimetype"),
		CreateDate: r.String("create_date"),
	}
}

// Tag is an id/name/color triple of a model-specific tag collection.
type Tag struct {
	ID    int64
	Name  string
	Color int64
}

// TagFromRecord decodes a tag row.
func TagFromRecord(r Record) Tag {
	color, _ := r.Int("color")
	return Tag{ID: r.ID(), Name: r.String("name"), Color: color}
}
