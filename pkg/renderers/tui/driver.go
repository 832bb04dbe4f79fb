package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question is what every prompt shows: the label (required fields carry a
// trailing " *") and optional help text.
type Question struct {
	Label string
	Help  string
}

// TextQuestion asks for free text. Secret answers are not echoed. Check, when
// set, must accept the answer before the prompt returns.
type TextQuestion struct {
	Question
	Default string
	Secret  bool
	Check   func(string) error
}

// ChoiceQuestion asks for one of Choices. When Skip is set it is listed
// first and picking it answers "".
type ChoiceQuestion struct {
	Question
	Choices []string
	Current string
	Skip    string
}

// Listed returns the entries shown to the user.
func (q ChoiceQuestion) Listed() []string {
	if q.Skip == "" {
		return q.Choices
	}
	return append([]string{q.Skip}, q.Choices...)
}

// Resolve maps a listed entry to the answer. ok is false for entries that
// were never listed.
func (q ChoiceQuestion) Resolve(picked string) (answer string, ok bool) {
	if q.Skip != "" && picked == q.Skip {
		return "", true
	}
	if slices.Contains(q.Choices, picked) {
		return picked, true
	}
	return "", false
}

// preselected is the entry highlighted when the prompt opens.
func (q ChoiceQuestion) preselected() string {
	if slices.Contains(q.Choices, q.Current) {
		return q.Current
	}
	return q.Skip
}

// YesNoQuestion asks for a boolean answer.
type YesNoQuestion struct {
	Question
	Default bool
}

// NoticeKind separates plain information from rejected answers.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeProblem
)

// Notice is a line of output between prompts.
type Notice struct {
	Kind NoticeKind
	Text string
}

// PromptDriver asks questions on behalf of the renderer and the CLI. The
// survey implementation talks to a terminal; tests script answers.
type PromptDriver interface {
	Text(ctx context.Context, q TextQuestion) (string, error)
	Choose(ctx context.Context, q ChoiceQuestion) (string, error)
	YesNo(ctx context.Context, q YesNoQuestion) (bool, error)
	Notify(ctx context.Context, n Notice) error
}

type surveyDriver struct {
	out    io.Writer
	errOut io.Writer
}

// NewSurveyDriver returns the interactive driver backed by survey. Notices go
// to out (stdout when nil); problems go to stderr.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out, errOut: os.Stderr}
}

func (d *surveyDriver) Text(ctx context.Context, q TextQuestion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var prompt survey.Prompt = &survey.Input{Message: q.Label, Help: q.Help, Default: q.Default}
	if q.Secret {
		prompt = &survey.Password{Message: q.Label, Help: q.Help}
	}
	var opts []survey.AskOpt
	if q.Check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return q.Check(s)
		}))
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Choose(ctx context.Context, q ChoiceQuestion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	listed := q.Listed()
	if len(listed) == 0 {
		return "", fmt.Errorf("tui: %q has no choices", q.Label)
	}

	prompt := &survey.Select{Message: q.Label, Help: q.Help, Options: listed}
	if pre := q.preselected(); pre != "" {
		prompt.Default = pre
	}

	var picked string
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", translateSurveyErr(err)
	}
	answer, _ := q.Resolve(picked)
	return answer, nil
}

func (d *surveyDriver) YesNo(ctx context.Context, q YesNoQuestion) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var answer bool
	prompt := &survey.Confirm{Message: q.Label, Help: q.Help, Default: q.Default}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := d.out
	if n.Kind == NoticeProblem && d.errOut != nil {
		w = d.errOut
	}
	_, err := fmt.Fprintln(w, n.Text)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
