package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-onboard/pkg/apiclient"
	"github.com/goliatone/go-onboard/pkg/formdef"
	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/renderers/tui"
	"github.com/goliatone/go-onboard/pkg/submission"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}
	prompts := r.Driver()
	if *email == "" {
		if *email, err = prompts.Text(ctx, tui.TextQuestion{Question: tui.Question{Label: "Email"}}); err != nil {
			return err
		}
	}
	password, err := prompts.Text(ctx, secret("Password"))
	if err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	user, err := client.Login(ctx, *email, password)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	if err := a.session().Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	req := apiclient.RegisterRequest{}
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Username, "username", "", "username (optional)")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number in international format")
	fs.StringVar(&req.CompanyName, "company", "", "company name (optional)")
	fs.StringVar(&req.Role, "role", "client", "account role: client or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}
	prompts := r.Driver()
	if req.Password, err = prompts.Text(ctx, secret("Password")); err != nil {
		return err
	}
	if req.ConfirmPassword, err = prompts.Text(ctx, secret("Confirm password")); err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	created, err := client.Register(ctx, req)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Account created for %s; run 'onboard login' to continue\n", created.Email)
	return nil
}

func runForms(ctx context.Context, a *app, _ []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	forms, err := client.ActiveForms(ctx)
	if err != nil {
		return a.report(err)
	}
	printForms(a, forms)
	return nil
}

func runSubmissions(ctx context.Context, a *app, _ []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	records, err := client.MySubmissions(ctx)
	if err != nil {
		return a.report(err)
	}
	printSubmissions(a, records)
	return nil
}

func runDashboard(ctx context.Context, a *app, _ []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	dash, err := client.Dashboard(ctx)
	if err != nil {
		return a.report(err)
	}

	counts := model.CountByStatus(dash.Submissions)
	fmt.Fprintf(a.out, "Active forms: %d  Submissions: %d (pending %d, in review %d, approved %d, rejected %d)\n\n",
		len(dash.Forms), len(dash.Submissions),
		counts[model.SubmissionPending], counts[model.SubmissionReview],
		counts[model.SubmissionApproved], counts[model.SubmissionRejected])
	printForms(a, dash.Forms)
	fmt.Fprintln(a.out)
	printSubmissions(a, dash.Submissions)
	return nil
}

func runFill(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	formID := fs.String("form", "", "id of the form to fill")
	output := fs.String("output", string(tui.OutputFormatPrettyText), "summary format: pretty or json")
	yes := fs.Bool("yes", false, "submit without asking for confirmation")
	dryRun := fs.Bool("dry-run", false, "collect and validate answers without submitting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *formID == "" && fs.NArg() > 0 {
		*formID = fs.Arg(0)
	}
	if *formID == "" {
		return errors.New("fill: -form is required")
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	if _, err := client.Session().AccessToken(); err != nil && !*dryRun {
		return a.report(apiclient.ErrUnauthenticated)
	}
	forms, err := client.ActiveForms(ctx)
	if err != nil {
		return a.report(err)
	}
	var form model.FormDefinition
	found := false
	for _, f := range forms {
		if f.ID == *formID {
			form, found = f, true
			break
		}
	}
	if !found {
		return fmt.Errorf("fill: form %q is not active", *formID)
	}

	r, err := a.renderer(tui.WithOutputFormat(tui.OutputFormat(*output)))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n\n", form.Name)
	answers, files, err := r.Fill(ctx, form, nil)
	if err != nil {
		return err
	}

	payload, err := submission.Assemble(form, answers, files)
	if err != nil {
		var invalid *submission.ValidationError
		if errors.As(err, &invalid) {
			for _, name := range invalid.Errors.Fields() {
				fmt.Fprintf(a.errOut, "  %s: %s\n", name, invalid.Errors[name])
			}
		}
		return err
	}
	if err := formdef.CheckAnswers(form, payload.Data); err != nil {
		a.logger.Warn("onboard: answers do not match exported schema", "form", form.ID, "error", err)
	}

	summary, err := r.Summary(form, payload.Data, payload.Files)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s\n", summary)

	if *dryRun {
		fmt.Fprintln(a.out, "Dry run: nothing submitted")
		return nil
	}
	if !*yes {
		ok, err := r.Driver().YesNo(ctx, tui.YesNoQuestion{
			Question: tui.Question{Label: "Submit this form?"},
			Default:  true,
		})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Submission cancelled")
			return nil
		}
	}

	record, err := client.Submit(ctx, payload)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Body != "" {
			fmt.Fprintln(a.errOut, apiErr.Body)
		}
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Submitted %s (status %s)\n", record.ID, record.Status)
	return nil
}

func runLint(_ context.Context, a *app, args []string) error {
	dirs := args
	if len(dirs) == 0 && a.cfg.FormsDir != "" {
		dirs = []string{a.cfg.FormsDir}
	}
	if len(dirs) == 0 {
		return errors.New("lint: no form directories given")
	}

	failed := false
	for _, dir := range dirs {
		store, err := formdef.LoadFS(os.DirFS(dir))
		if err != nil {
			failed = true
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(a.errOut, "%s: %s\n", dir, line)
			}
			continue
		}
		fmt.Fprintf(a.out, "%s: %d forms OK\n", dir, len(store.Forms()))
	}
	if failed {
		return errors.New("lint: form definitions have problems")
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	outFile := fs.String("o", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir := fs.Arg(0)
	if dir == "" {
		dir = a.cfg.FormsDir
	}
	if dir == "" {
		return errors.New("export: no form directory given")
	}

	store, err := formdef.LoadFS(os.DirFS(dir))
	if err != nil {
		return err
	}
	doc := formdef.Document(store.Forms())
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("export: generated document is invalid: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	raw = append(raw, '\n')

	if *outFile == "" {
		_, err = a.out.Write(raw)
		return err
	}
	if err := os.WriteFile(*outFile, raw, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", *outFile, err)
	}
	fmt.Fprintf(a.out, "OpenAPI document written to %s\n", *outFile)
	return nil
}

func printForms(a *app, forms []model.FormDefinition) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tFIELDS")
	for _, form := range forms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", form.ID, form.Name, form.Category, len(form.Fields))
	}
	_ = tw.Flush()
}

func printSubmissions(a *app, records []model.SubmissionRecord) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORM\tSTATUS\tSUBMITTED\tNOTES")
	for _, record := range records {
		submitted := "-"
		if !record.SubmittedAt.IsZero() {
			submitted = record.SubmittedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", record.ID, record.FormName, record.Status, submitted, record.ReviewNotes)
	}
	_ = tw.Flush()
}

func secret(label string) tui.TextQuestion {
	return tui.TextQuestion{Question: tui.Question{Label: label}, Secret: true}
}
