package model

// Decorator adjusts a form definition after it has been decoded, before Check
// runs (for example sanitising author text or filling defaults).
type Decorator interface {
	Decorate(*FormDefinition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDefinition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormDefinition) error {
	return fn(form)
}

// Decorate applies decorators in order, stopping at the first error. Nil
// decorators are skipped.
func Decorate(form *FormDefinition, decorators ...Decorator) error {
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return err
		}
	}
	return nil
}

// DefaultFieldIDs fills empty field ids with the field name.
var DefaultFieldIDs = DecoratorFunc(func(form *FormDefinition) error {
	for i := range form.Fields {
		if form.Fields[i].ID == "" {
			form.Fields[i].ID = form.Fields[i].Name
		}
	}
	return nil
})
