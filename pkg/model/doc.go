// Package model defines the onboarding domain: form definitions made of typed
// fields, client submissions with their review lifecycle, and admin
// notifications. Field types form a closed set; every FieldType resolves to a
// Kind that knows how to parse raw input and decide whether an answer counts as
// provided, so validators and renderers dispatch on Kind instead of
// re-implementing per-type rules. Unknown types received from external sources
// are coerced to text with a logged warning. Check enforces author-time rules
// (struct constraints plus an acyclic conditional-logic graph) before a form is
// saved or published.
package model
