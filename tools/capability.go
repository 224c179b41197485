// Capability registry with dynamic registration.
//
// Information Hiding:
// - Capability storage and lookup implementation hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ExecutorFunc performs a capability's side effect.
// The dispatcher time-boxes every invocation through ctx.
type ExecutorFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Capability is a registry entry: a named action the agent may invoke,
// with a declarative argument schema and an executor. Registered once at
// startup; read-only thereafter.
type Capability struct {
	Name        string
	Description string
	Schema      Schema
	Execute     ExecutorFunc
}

// Registry manages available capabilities.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry creates a new empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		caps: make(map[string]Capability),
	}
}

// Register adds a new capability to the registry.
// Returns error if a capability with the same name already exists.
func (r *Registry) Register(c Capability) error {
	if c.Name == "" {
		return fmt.Errorf("capability name must not be empty")
	}
	if c.Execute == nil {
		return fmt.Errorf("capability %q has no executor", c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caps[c.Name]; exists {
		return fmt.Errorf("capability %q already registered", c.Name)
	}
	r.caps[c.Name] = c
	return nil
}

// Get returns a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.caps[name]
	return c, exists
}

// Has checks if a capability exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.caps[name]
	return exists
}

// Names returns all registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns a formatted description of all capabilities for
// inclusion in the generation prompt.
func (r *Registry) Description() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)

	var descriptions []string
	for _, name := range names {
		c := r.caps[name]

		fieldNames := make([]string, 0, len(c.Schema))
		for fieldName := range c.Schema {
			fieldNames = append(fieldNames, fieldName)
		}
		sort.Strings(fieldNames)

		var params []string
		for _, fieldName := range fieldNames {
			field := c.Schema[fieldName]
			required := "optional"
			if field.Required {
				required = "required"
			}
			detail := field.Type.String()
			if len(field.Enum) > 0 {
				detail = "one of " + strings.Join(field.Enum, "|")
			} else if field.Format != "" {
				detail += ", format " + field.Format
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				fieldName, detail, field.Description, required))
		}

		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			c.Name, c.Description, strings.Join(params, "\n")))
	}

	return strings.Join(descriptions, "\n\n")
}
