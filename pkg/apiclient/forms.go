package apiclient

import (
	"context"

	"github.com/goliatone/go-onboard/pkg/model"
)

// ListForms fetches every form definition the server exposes.
func (c *Client) ListForms(ctx context.Context) ([]model.FormDefinition, error) {
	var payload envelope[[]apiForm]
	if err := c.getJSON(ctx, PathForms, authOptional, &payload); err != nil {
		return nil, err
	}
	forms := make([]model.FormDefinition, 0, len(payload.Data))
	for _, raw := range payload.Data {
		forms = append(forms, decodeForm(raw, c.logger))
	}
	return forms, nil
}

// ActiveForms fetches the forms clients may fill.
func (c *Client) ActiveForms(ctx context.Context) ([]model.FormDefinition, error) {
	forms, err := c.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	return model.ActiveForms(forms), nil
}
