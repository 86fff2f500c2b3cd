package model

// Message is an entry of a record's chatter (mail.message).
type Message struct {
	ID          int64
	Date        string
	AuthorID    int64
	AuthorName  string
	EmailFrom   string
	Subject     string
	Body        string
	MessageType string
	SubtypeName string
}

// MessageFromRecord decodes a mail.message row.
func MessageFromRecord(r Record) Message {
	m := Message{
		ID:          r.ID(),
		Date:        r.String("date"),
		EmailFrom:   r.String("email_from"),
		Subject:     r.String("subject"),
		Body:        r.String("body"),
		MessageType: r.String("message_type"),
	}
	if id, name, ok := r.Many2One("author_id"); ok {
		m.AuthorID, m.AuthorName = id, name
	}
	if _, name, ok := r.Many2One("subtype_id"); ok {
		m.SubtypeName = name
	}
	return m
}

// Author returns the partner name, falling back to the raw sender address.
func (m Message) Author() string {
	switch {
	case m.AuthorName != "":
		return m.AuthorName
	case m.EmailFrom != "":
		return m.EmailFrom
	}
	return "Unknown"
}

// Kind returns the subtype name ("Discussions", "Note", ...) or the message type.
func (m Message) Kind() string {
	if m.SubtypeName != "" {
		return m.SubtypeName
	}
	if m.MessageType != "" {
		return m.MessageType
	}
	return "comment"
}
