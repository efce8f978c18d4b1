package registry

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formbuilder/pkg/session"
)

// Publisher publishes session documents as new registry schema versions.
type Publisher struct {
	client *Client
}

var _ session.Publisher = (*Publisher)(nil)

// NewPublisher wraps client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish creates the schema version and stores its UI schema when the
// document has one.
func (p *Publisher) Publish(ctx context.Context, req session.PublishRequest) (session.Published, error) {
	created, err := p.client.CreateSchema(ctx, CreateRequest{
		Name:        req.Name,
		Version:     req.Version,
		Value:       req.Pair.Schema,
		Description: req.Description,
	})
	if err != nil {
		return session.Published{}, err
	}

	id := created.ID
	if id == "" {
		id = SchemaID(p.client.MunicipalityID(), req.Name, req.Version)
	}
	ui := req.Pair.UI
	if len(ui.Order) > 0 || ui.Fields.Len() > 0 || len(ui.Extra) > 0 {
		if _, err := p.client.PutUISchema(ctx, id, UISchemaRequest{Value: ui}); err != nil {
			return session.Published{}, fmt.Errorf("registry: ui schema of %s: %w", id, err)
		}
	}

	version := created.Version
	if version == "" {
		version = req.Version
	}
	return session.Published{SchemaID: id, Version: version}, nil
}
