package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-onboard/internal/config"
	"github.com/goliatone/go-onboard/pkg/apiclient"
	"github.com/goliatone/go-onboard/pkg/renderers/tui"
	"github.com/goliatone/go-onboard/pkg/session"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "login", summary: "authenticate and store the session", run: runLogin},
	{name: "logout", summary: "clear the stored session", run: runLogout},
	{name: "register", summary: "create an account", run: runRegister},
	{name: "forms", summary: "list active forms", run: runForms},
	{name: "submissions", summary: "list your submissions", run: runSubmissions},
	{name: "dashboard", summary: "show active forms and your submissions", run: runDashboard},
	{name: "fill", summary: "fill and submit a form interactively", run: runFill},
	{name: "lint", summary: "check form definition files", run: runLint},
	{name: "export", summary: "export form definitions as an OpenAPI document", run: runExport},
}

// app carries the resolved configuration and collaborators shared by every
// command.
type app struct {
	cfg     *config.Config
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
	prompts tui.PromptDriver
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "onboard: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, prompts tui.PromptDriver) error {
	fs := flag.NewFlagSet("onboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", ".env", "dotenv file to load before reading the environment")
	apiURL := fs.String("api", "", "API base URL (overrides "+config.EnvAPIURL+")")
	sessionFile := fs.String("session", "", "session file (overrides "+config.EnvSessionFile+")")
	timeout := fs.Duration("timeout", 0, "request timeout (overrides "+config.EnvTimeout+")")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <command> [args]\n\nCommands:\n", filepath.Base(os.Args[0]))
		for _, cmd := range commands {
			fmt.Fprintf(fs.Output(), "  %-12s %s\n", cmd.name, cmd.summary)
		}
		fmt.Fprintf(fs.Output(), "\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.APIURL = strings.TrimRight(*apiURL, "/")
	}
	if *sessionFile != "" {
		cfg.SessionFile = *sessionFile
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}

	a := &app{
		cfg:     cfg,
		out:     stdout,
		errOut:  stderr,
		logger:  cfg.Logger(stderr),
		prompts: prompts,
	}

	name := fs.Arg(0)
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(ctx, a, fs.Args()[1:])
		}
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", name)
}

func (a *app) session() *session.Session {
	return session.New(session.NewFileStore(a.cfg.SessionFile), session.WithLogger(a.logger))
}

func (a *app) client() (*apiclient.Client, error) {
	return apiclient.New(a.cfg.APIURL, a.session(),
		apiclient.WithTimeout(a.cfg.Timeout),
		apiclient.WithLogger(a.logger))
}

func (a *app) renderer(opts ...tui.Option) (*tui.Renderer, error) {
	base := []tui.Option{tui.WithLogger(a.logger)}
	if a.prompts != nil {
		base = append(base, tui.WithPromptDriver(a.prompts))
	} else {
		base = append(base, tui.WithPromptDriver(tui.NewSurveyDriver(a.out)))
	}
	return tui.New(append(base, opts...)...)
}

// report prints field errors one per line before returning err.
func (a *app) report(err error) error {
	var fieldErr *apiclient.FieldErrors
	if errors.As(err, &fieldErr) {
		names := make([]string, 0, len(fieldErr.Fields))
		for name := range fieldErr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(a.errOut, "  %s: %s\n", name, strings.Join(fieldErr.Fields[name], " "))
		}
	}
	if errors.Is(err, apiclient.ErrUnauthenticated) {
		fmt.Fprintln(a.errOut, "not logged in; run 'onboard login' first")
	}
	return err
}
