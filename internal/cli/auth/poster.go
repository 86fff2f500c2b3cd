// Package auth posts chatter messages on behalf of a chosen user.
//
// mail.message.author_id points to res.partner, not res.users, so every post first maps the
// acting user to its partner.
package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/repo"
)

const (
	usersModel    = "res.users"
	messageModel  = "mail.message"
	subtypeModel  = "mail.message.subtype"
	subtypeNote   = "Note"
	subtypePublic = "Discussions"
)

// PostOptions tune PostMessageAs. Zero UserID means the configured default user.
type PostOptions struct {
	UserID      int64
	MessageType string // "comment" when empty
	IsNote      bool
	Extra       map[string]any
}

// Poster creates mail.message records directly. message_post is avoided because its return
// value does not marshal over XML-RPC.
type Poster struct {
	rpc           repo.RPC
	defaultUserID int64
	log           *zap.SugaredLogger
}

// NewPoster returns a poster; defaultUserID 0 means none configured.
func NewPoster(rpc repo.RPC, defaultUserID int64, log *zap.SugaredLogger) *Poster {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Poster{rpc: rpc, defaultUserID: defaultUserID, log: log}
}

// ResolveDefaultUser finds a user id by login; empty login means the session's own user.
func (p *Poster) ResolveDefaultUser(ctx context.Context, login string) (int64, error) {
	if login == "" {
		login = p.rpc.Username()
	}
	ids, err := p.rpc.Search(ctx, usersModel,
		model.Domain{}.And(model.Leaf("login", "=", login)), repo.SearchOptions{Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: user '%s'", model.ErrNotFound, login)
	}
	return ids[0], nil
}

// ResolvePartnerForUser returns the partner linked to a user.
func (p *Poster) ResolvePartnerForUser(ctx context.Context, userID int64) (int64, error) {
	users, err := p.rpc.Read(ctx, usersModel, []int64{userID}, []string{"partner_id"})
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, fmt.Errorf("%w: user %d", model.ErrNotFound, userID)
	}
	v := users[0]["partner_id"]
	if id, _, ok := model.Many2One(v); ok && id > 0 {
		return id, nil
	}
	if id, ok := model.ToInt64(v); ok && id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("%w: user %d has no associated partner", model.ErrNotFound, userID)
}

// PostMessageAs creates a message on model/id authored by the partner of the acting user.
// Notes use the "Note" subtype, comments "Discussions"; a missing subtype is sent as false.
func (p *Poster) PostMessageAs(ctx context.Context, modelName string, id int64, body string, opts PostOptions) (bool, error) {
	userID := opts.UserID
	if userID == 0 {
		if p.defaultUserID == 0 {
			return false, fmt.Errorf("%w: no default user ID configured (ODOO_DEFAULT_USER_ID)", model.ErrConfiguration)
		}
		userID = p.defaultUserID
	}
	partnerID, err := p.ResolvePartnerForUser(ctx, userID)
	if err != nil {
		return false, err
	}

	subtype, err := p.subtype(ctx, opts.IsNote)
	if err != nil {
		return false, err
	}

	msgType := opts.MessageType
	if msgType == "" {
		msgType = "comment"
	}
	values := map[string]any{
		"model":        modelName,
		"res_id":       id,
		"body":         body,
		"message_type": msgType,
		"subtype_id":   subtype,
		"author_id":    partnerID,
	}
	for k, v := range opts.Extra {
		values[k] = v
	}

	msgID, err := p.rpc.Create(ctx, messageModel, values)
	if err != nil {
		return false, err
	}
	p.log.Debugw("message posted", "model", modelName, "id", id, "message_id", msgID, "note", opts.IsNote)
	return msgID > 0, nil
}

// subtype returns the subtype id or false when the backend has none by that name.
func (p *Poster) subtype(ctx context.Context, note bool) (any, error) {
	name := subtypePublic
	if note {
		name = subtypeNote
	}
	ids, err := p.rpc.Search(ctx, subtypeModel,
		model.Domain{}.And(model.Leaf("name", "=", name)), repo.SearchOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		p.log.Warnw("message subtype not found", "name", name)
		return false, nil
	}
	return ids[0], nil
}
