package apiclient

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-onboard/pkg/model"
)

// Dashboard is the client landing view: active forms plus own submissions.
type Dashboard struct {
	Forms       []model.FormDefinition
	Submissions []model.SubmissionRecord
}

// Dashboard fetches forms and submissions concurrently. Either failure fails
// the whole call and cancels the other request.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	g, gctx := errgroup.WithContext(ctx)

	var forms []model.FormDefinition
	var records []model.SubmissionRecord

	g.Go(func() error {
		var err error
		forms, err = c.ActiveForms(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = c.MySubmissions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Forms: forms, Submissions: records}, nil
}
