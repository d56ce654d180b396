// Package openapi embeds the request-validation schema consumed by
// internal/http/middleware's validator. The spec is hand-authored rather
// than generated: it covers the shapes validation cares about (required
// fields, enums, path parameter types) and is not used to generate server
// routing glue.
package openapi

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

// GetSwagger parses the embedded spec into a *openapi3.T, ready to pass to
// middleware.NewValidator.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("openapi: parse embedded spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("openapi: validate embedded spec: %w", err)
	}
	return doc, nil
}
