// Package formdef loads authored form definitions from JSON or YAML files,
// sanitises their display text and checks them before they are served. It
// also exports each form's answer shape as an OpenAPI schema.
package formdef
