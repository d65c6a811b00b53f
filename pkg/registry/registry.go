// Package registry maps action node types to their handler factories and
// validates node configuration before handlers are built.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/modelflow/modelflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// Registry holds the known action handler factories keyed by type.
type Registry struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	factories map[string]protocol.ActionHandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ActionHandlerFactory),
	}
}

// Register adds a factory under its own ID. Later registrations replace
// earlier ones.
func (r *Registry) Register(factory protocol.ActionHandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered action handler", "action_type", factory.ID())
}

// Available returns the registered action types, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}

// CreateHandler validates the config against the factory's schema and builds
// a handler for the action type.
func (r *Registry) CreateHandler(actionType string, config map[string]any) (protocol.ActionHandler, error) {
	r.mu.RLock()
	factory, ok := r.factories[actionType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	if config == nil {
		config = map[string]any{}
	}

	err := validateConfig(factory.Schema(), config)
	if err != nil {
		return nil, fmt.Errorf("invalid config for action type %q: %w", actionType, err)
	}

	return factory.Create(config)
}

func validateConfig(schema, config map[string]any) error {
	if schema == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			messages = append(messages, validationErr.String())
		}

		return fmt.Errorf("schema validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}
