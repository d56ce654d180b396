// Package handler implements the plain chi route handlers backing the
// HTTP surface in §6.2. Request validation against the OpenAPI schema runs
// as middleware ahead of these handlers, so each handler only needs to
// decode the body into its own request struct.
package handler

import (
	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/facade"
)

// Server bundles the facade every handler method dispatches through.
type Server struct {
	facade          *facade.Facade
	callbackFactory domain.PostCallbackFactory
}

// NewServer returns a Server backed by f, starting the scheduler with
// callbackFactory whenever /api/scheduler/start is called.
func NewServer(f *facade.Facade, callbackFactory domain.PostCallbackFactory) *Server {
	return &Server{facade: f, callbackFactory: callbackFactory}
}
