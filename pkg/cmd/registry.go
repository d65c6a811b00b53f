// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"log/slog"

	"github.com/modelflow/modelflow/pkg/handlers/httprequest"
	loghandler "github.com/modelflow/modelflow/pkg/handlers/log"
	"github.com/modelflow/modelflow/pkg/handlers/transform"
	"github.com/modelflow/modelflow/pkg/registry"
)

// NewRegistry builds an action handler registry with the native handlers
// registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.Register(loghandler.NewHandlerFactory())
	reg.Register(httprequest.NewHandlerFactory())
	reg.Register(transform.NewHandlerFactory())

	return reg
}
