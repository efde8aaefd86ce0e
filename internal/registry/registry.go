// Package registry defines the curated set of typed Basecamp actions and
// maps them onto callers by name. The same definitions drive both the CLI
// action dispatcher and the MCP tool surface, so an action added here shows
// up in both without further wiring.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
	berrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

// Handler executes one action against the API client. Arguments arrive as
// raw JSON already validated against the action's input schema.
type Handler func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error)

// Action is one named operation.
type Action struct {
	// Name is the dotted canonical name, e.g. "projects.list".
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler

	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
}

// Registry holds actions in registration order.
type Registry struct {
	actions []*Action
	byName  map[string]*Action
}

// New builds a registry from the given actions.
func New(actions []*Action) *Registry {
	r := &Registry{byName: make(map[string]*Action, len(actions))}
	for _, a := range actions {
		r.actions = append(r.actions, a)
		r.byName[a.Name] = a
	}

	return r
}

// Actions returns the actions in registration order.
func (r *Registry) Actions() []*Action {
	return r.actions
}

// Names returns the canonical action names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for _, a := range r.actions {
		names = append(names, a.Name)
	}

	return names
}

// Lookup finds an action by canonical name.
func (r *Registry) Lookup(name string) (*Action, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, &berrors.UnknownActionError{Name: name}
	}

	return a, nil
}

// Invoke validates args against the action's input schema, then runs its
// handler. Validation failures never reach the handler.
func (r *Registry) Invoke(ctx context.Context, client *basecamp.Client, name string, args json.RawMessage) (any, error) {
	a, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	if err := a.ValidateArgs(args); err != nil {
		return nil, err
	}

	return a.Handler(ctx, client, args)
}

// ValidateArgs checks raw JSON arguments against the action's input schema.
// A nil or empty payload is treated as an empty object.
func (a *Action) ValidateArgs(args json.RawMessage) error {
	a.resolveOnce.Do(func() {
		a.resolved, a.resolveErr = a.InputSchema.Resolve(nil)
	})
	if a.resolveErr != nil {
		return fmt.Errorf("resolving schema for %s: %w", a.Name, a.resolveErr)
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	var instance any
	if err := json.Unmarshal(args, &instance); err != nil {
		return &berrors.ValidationError{Action: a.Name, Reason: fmt.Sprintf("arguments are not valid JSON: %v", err)}
	}

	if err := a.resolved.Validate(instance); err != nil {
		return &berrors.ValidationError{Action: a.Name, Reason: err.Error()}
	}

	return nil
}
