package tui

import "github.com/goliatone/go-onboard/pkg/model"

// State tracks collected answers and attachments for one fill session, and
// which fields have already been prompted.
type State struct {
	answers  model.Answers
	files    model.Files
	prompted map[string]bool
}

// NewState seeds the state with prefilled answers and files.
func NewState(prefill model.Answers, files model.Files) *State {
	s := &State{
		answers:  prefill.Clone(),
		files:    model.Files{},
		prompted: map[string]bool{},
	}
	for name, attachments := range files {
		s.files[name] = append([]model.FileAttachment(nil), attachments...)
	}
	return s
}

// Answers returns the current answer map (mutable).
func (s *State) Answers() model.Answers {
	if s == nil {
		return nil
	}
	return s.answers
}

// Files returns the current attachments (mutable).
func (s *State) Files() model.Files {
	if s == nil {
		return nil
	}
	return s.files
}

// Value returns the answer stored for name.
func (s *State) Value(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.answers[name]
	return v, ok
}

// SetValue stores an answer. A nil value removes it.
func (s *State) SetValue(name string, value any) {
	if value == nil {
		delete(s.answers, name)
		return
	}
	s.answers[name] = value
}

// SetFiles stores attachments for a file field. An empty list removes them.
func (s *State) SetFiles(name string, attachments []model.FileAttachment) {
	if len(attachments) == 0 {
		delete(s.files, name)
		return
	}
	s.files[name] = attachments
}

func (s *State) markPrompted(name string) {
	s.prompted[name] = true
}

func (s *State) wasPrompted(name string) bool {
	return s.prompted[name]
}
