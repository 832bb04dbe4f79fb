package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/testsupport"
	"github.com/goliatone/go-onboard/pkg/validation"
)

type stubDriver struct {
	texts    []string
	picks    []string
	yesNo    []bool
	textErr  error
	messages []string
	kinds    []NoticeKind
	textQs   []TextQuestion
	choiceQs []ChoiceQuestion
	textPos  int
	pickPos  int
	yesPos   int
}

// Text mimics survey: an empty answer falls back to the default.
func (s *stubDriver) Text(_ context.Context, q TextQuestion) (string, error) {
	if s.textErr != nil {
		return "", s.textErr
	}
	s.textQs = append(s.textQs, q)
	if s.textPos >= len(s.texts) {
		return "", errors.New("no text scripted")
	}
	val := s.texts[s.textPos]
	s.textPos++
	if val == "" {
		return q.Default, nil
	}
	return val, nil
}

// Choose resolves listed entries like survey does and passes anything else
// through untouched.
func (s *stubDriver) Choose(_ context.Context, q ChoiceQuestion) (string, error) {
	s.choiceQs = append(s.choiceQs, q)
	if s.pickPos >= len(s.picks) {
		return "", errors.New("no choice scripted")
	}
	picked := s.picks[s.pickPos]
	s.pickPos++
	if answer, ok := q.Resolve(picked); ok {
		return answer, nil
	}
	return picked, nil
}

func (s *stubDriver) YesNo(_ context.Context, _ YesNoQuestion) (bool, error) {
	if s.yesPos >= len(s.yesNo) {
		return false, errors.New("no yes/no scripted")
	}
	val := s.yesNo[s.yesPos]
	s.yesPos++
	return val, nil
}

func (s *stubDriver) Notify(_ context.Context, n Notice) error {
	s.messages = append(s.messages, n.Text)
	s.kinds = append(s.kinds, n.Kind)
	return nil
}

func stubOpener(path string) (model.FileAttachment, error) {
	if path == "missing.pdf" {
		return model.FileAttachment{}, errors.New("cannot read missing.pdf")
	}
	return model.FileAttachment{Name: path, Size: 1024, ContentType: "application/pdf"}, nil
}

func newRenderer(t *testing.T, driver PromptDriver, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{WithPromptDriver(driver), WithFileOpener(stubOpener)}, opts...)
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestFill_LoanWithConditionalUpload(t *testing.T) {
	driver := &stubDriver{
		texts: []string{"abc", "500", "25000", "payslip.txt", "missing.pdf", "payslip.pdf"},
		picks: []string{"Education"},
		yesNo: []bool{false, true},
	}
	r := newRenderer(t, driver)

	answers, files, err := r.Fill(context.Background(), testsupport.LoanForm(), nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	wantAnswers := model.Answers{
		"loan_amount":          25000.0,
		"loan_purpose":         "Education",
		"credit_check_consent": true,
	}
	if diff := cmp.Diff(wantAnswers, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if got := files["income_proof"]; len(got) != 1 || got[0].Name != "payslip.pdf" {
		t.Fatalf("files = %+v", files)
	}

	wantInfo := []string{
		"Application form for personal loans up to $50,000",
		"✗ Loan Amount Requested *: Must be a valid number",
		"✗ Loan Amount Requested *: Minimum value is 1000",
		"✗ Income Verification Documents: Invalid file type. Allowed: pdf, doc, docx",
		"✗ Income Verification Documents: cannot read missing.pdf",
		"✗ I consent to a credit check *: This field is required",
	}
	if diff := cmp.Diff(wantInfo, driver.messages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	wantKinds := []NoticeKind{NoticeInfo, NoticeProblem, NoticeProblem, NoticeProblem, NoticeProblem, NoticeProblem}
	if diff := cmp.Diff(wantKinds, driver.kinds); diff != "" {
		t.Fatalf("notice kinds mismatch (-want +got):\n%s", diff)
	}
	if driver.choiceQs[0].Skip != "" {
		t.Fatalf("required dropdown offered a skip entry")
	}
}

func TestFill_SkipsHiddenFields(t *testing.T) {
	driver := &stubDriver{
		texts: []string{"5000"},
		picks: []string{"Home Improvement"},
		yesNo: []bool{true},
	}
	r := newRenderer(t, driver)

	answers, files, err := r.Fill(context.Background(), testsupport.LoanForm(), nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("hidden upload prompted: %+v", files)
	}
	if answers["loan_purpose"] != "Home Improvement" {
		t.Fatalf("answers = %v", answers)
	}
	if driver.textPos != 1 {
		t.Fatalf("texts consumed = %d, want 1", driver.textPos)
	}
}

func TestFill_PromptsFieldRevealedByLaterAnswer(t *testing.T) {
	form := model.FormDefinition{
		ID: "f",
		Fields: []model.FieldDefinition{
			{
				Name: "details", Label: "Details", Type: model.FieldTypeText, Required: true,
				ConditionalLogic: &model.ConditionalLogic{DependsOn: "more", Condition: model.ConditionEquals, Value: true},
			},
			{Name: "more", Label: "Tell us more?", Type: model.FieldTypeCheckbox},
		},
	}
	driver := &stubDriver{texts: []string{"   ", "extra"}, yesNo: []bool{true}}
	r := newRenderer(t, driver)

	answers, _, err := r.Fill(context.Background(), form, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(model.Answers{"more": true, "details": "extra"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"✗ Details *: This field is required"}, driver.messages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_PrefillDefaultsAndOptionalDropdown(t *testing.T) {
	form := model.FormDefinition{
		ID: "3",
		Fields: []model.FieldDefinition{
			{Name: "portfolio_value", Label: "Portfolio Value", Type: model.FieldTypeNumber},
			{Name: "risk_profile", Label: "Risk Profile", Type: model.FieldTypeDropdown, Options: []string{"Conservative", "Balanced"}},
			{Name: "start_date", Label: "Start", Type: model.FieldTypeDate},
		},
	}
	driver := &stubDriver{texts: []string{"", "01/02/2024", "2024-02-01"}, picks: []string{"(skip)"}}
	r := newRenderer(t, driver)

	prefill := model.Answers{"portfolio_value": 1500.0, "risk_profile": "Balanced"}
	answers, _, err := r.Fill(context.Background(), form, prefill)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(model.Answers{"portfolio_value": 1500.0, "start_date": "2024-02-01"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if prefill["risk_profile"] != "Balanced" {
		t.Fatalf("prefill mutated: %v", prefill)
	}
	if driver.textQs[0].Default != "1500" {
		t.Fatalf("number default = %q", driver.textQs[0].Default)
	}
	if driver.textQs[1].Help != "YYYY-MM-DD" {
		t.Fatalf("date help = %q", driver.textQs[1].Help)
	}
	q := driver.choiceQs[0]
	if diff := cmp.Diff([]string{"(skip)", "Conservative", "Balanced"}, q.Listed()); diff != "" {
		t.Fatalf("listed mismatch (-want +got):\n%s", diff)
	}
	if q.Current != "Balanced" || q.preselected() != "Balanced" {
		t.Fatalf("current = %q, preselected = %q", q.Current, q.preselected())
	}
	if len(driver.messages) != 1 {
		t.Fatalf("expected one date format error, got %v", driver.messages)
	}
}

func TestFill_RejectsUnlistedChoice(t *testing.T) {
	form := model.FormDefinition{
		ID: "3",
		Fields: []model.FieldDefinition{
			{Name: "risk_profile", Label: "Risk Profile", Type: model.FieldTypeDropdown, Required: true, Options: []string{"Conservative", "Balanced"}},
		},
	}
	driver := &stubDriver{picks: []string{"Aggressive", "Balanced"}}
	r := newRenderer(t, driver)

	answers, _, err := r.Fill(context.Background(), form, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(model.Answers{"risk_profile": "Balanced"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	want := []string{"✗ Risk Profile *: " + validation.MessageInvalidOption}
	if diff := cmp.Diff(want, driver.messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestChoiceQuestion(t *testing.T) {
	q := ChoiceQuestion{Choices: []string{"Employed", "Retired"}, Current: "Student", Skip: "(skip)"}

	if diff := cmp.Diff([]string{"(skip)", "Employed", "Retired"}, q.Listed()); diff != "" {
		t.Fatalf("listed mismatch (-want +got):\n%s", diff)
	}
	if q.preselected() != "(skip)" {
		t.Fatalf("unknown current should preselect the skip entry, got %q", q.preselected())
	}

	cases := []struct {
		picked string
		answer string
		ok     bool
	}{
		{picked: "(skip)", answer: "", ok: true},
		{picked: "Retired", answer: "Retired", ok: true},
		{picked: "Student", answer: "", ok: false},
	}
	for _, tc := range cases {
		answer, ok := q.Resolve(tc.picked)
		if answer != tc.answer || ok != tc.ok {
			t.Fatalf("Resolve(%q) = %q, %v; want %q, %v", tc.picked, answer, ok, tc.answer, tc.ok)
		}
	}

	required := ChoiceQuestion{Choices: []string{"Employed"}}
	if _, ok := required.Resolve("(skip)"); ok {
		t.Fatalf("skip entry resolved without a Skip label")
	}
	if diff := cmp.Diff([]string{"Employed"}, required.Listed()); diff != "" {
		t.Fatalf("listed mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_Aborted(t *testing.T) {
	driver := &stubDriver{textErr: ErrAborted}
	r := newRenderer(t, driver)

	_, _, err := r.Fill(context.Background(), testsupport.KYCForm(), nil)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
}

func TestFill_CancelledContext(t *testing.T) {
	r := newRenderer(t, &stubDriver{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := r.Fill(ctx, testsupport.KYCForm(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestSummary(t *testing.T) {
	form := testsupport.LoanForm()
	answers := model.Answers{
		"loan_amount":          25000.0,
		"loan_purpose":         "Education",
		"credit_check_consent": true,
	}
	files := model.Files{"income_proof": {testsupport.Attachment("payslip.pdf", 10)}}

	pretty := newRenderer(t, &stubDriver{}, WithOutputFormat(OutputFormatPrettyText))
	out, err := pretty.Summary(form, answers, files)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := "Loan Amount Requested: 25000\n" +
		"Purpose of Loan: Education\n" +
		"Income Verification Documents: payslip.pdf\n" +
		"I consent to a credit check: yes\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("pretty mismatch (-want +got):\n%s", diff)
	}

	asJSON := newRenderer(t, &stubDriver{})
	out, err = asJSON.Summary(form, model.Answers{"loan_amount": 5000.0}, files)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if diff := cmp.Diff("{\n  \"loan_amount\": 5000\n}\n", string(out)); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passport.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if got.Name != "passport.pdf" || got.Size != 8 || got.ContentType != "application/pdf" || got.Extension() != "pdf" {
		t.Fatalf("attachment = %+v", got)
	}
	if _, err := OpenFile(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
