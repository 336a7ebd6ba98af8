package section

import (
	"fmt"

	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/backend"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/models"
	"github.com/aethra/misight/internal/schema"
)

// Registry holds the controller of every section in navigation order
type Registry struct {
	order       []string
	controllers map[string]*Controller
	policy      *auth.Policy
}

// NewRegistry builds a controller per definition and the role-by-section policy
func NewRegistry(defs []Definition, collections *backend.Collections, log logger.Logger) (*Registry, error) {
	r := &Registry{
		controllers: make(map[string]*Controller, len(defs)),
		policy:      auth.NewPolicy(),
	}
	for _, def := range defs {
		if _, dup := r.controllers[def.Key]; dup {
			return nil, fmt.Errorf("section %q defined twice", def.Key)
		}
		if def.Fields == nil || def.Columns == nil {
			return nil, fmt.Errorf("section %q needs fields and columns", def.Key)
		}
		seen := make(map[string]bool)
		for _, name := range schema.Names(def.Fields(Lookups{})) {
			if seen[name] {
				return nil, fmt.Errorf("section %q declares field %q twice", def.Key, name)
			}
			seen[name] = true
		}
		r.order = append(r.order, def.Key)
		r.controllers[def.Key] = NewController(def, collections, log)
		for _, role := range models.Roles {
			if perm := def.Permission(role); perm.CanView {
				r.policy.Grant(def.Key, role, perm)
			}
		}
	}
	return r, nil
}

// Get returns the controller of a section
func (r *Registry) Get(key string) (*Controller, bool) {
	c, ok := r.controllers[key]
	return c, ok
}

// Policy returns the permission matrix derived from the definitions
func (r *Registry) Policy() *auth.Policy {
	return r.policy
}

// Visible returns the controllers role may view, in navigation order
func (r *Registry) Visible(role models.Role) []*Controller {
	var out []*Controller
	for _, key := range r.order {
		if r.policy.CheckPermission(role, key, auth.ActionView) {
			out = append(out, r.controllers[key])
		}
	}
	return out
}
