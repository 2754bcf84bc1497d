package schema

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

type Registry struct {
	origins  map[OriginKind]*Origin
	order    []OriginKind
	validate *validatorv10.Validate
}

func NewRegistry(origins ...Origin) *Registry {
	r := &Registry{
		origins:  make(map[OriginKind]*Origin, len(origins)),
		order:    make([]OriginKind, 0, len(origins)),
		validate: validatorv10.New(),
	}
	for i := range origins {
		origin := origins[i]
		if origin.PrimaryKey == "" {
			origin.PrimaryKey = "id"
		}
		r.origins[origin.Kind] = &origin
		r.order = append(r.order, origin.Kind)
	}
	return r
}

// Lookup accepts the raw table name as it appears in storage or a request.
func (r *Registry) Lookup(name string) (*Origin, bool) {
	origin, ok := r.origins[OriginKind(strings.ToLower(strings.TrimSpace(name)))]
	return origin, ok
}

func (r *Registry) Kinds() []OriginKind {
	return append([]OriginKind(nil), r.order...)
}

// DisplayName maps a table name to its label; unknown names pass through.
func (r *Registry) DisplayName(name string) string {
	if origin, ok := r.Lookup(name); ok {
		return origin.DisplayName
	}
	return name
}

// Label is Origin.Label with an identity fallback for unregistered tables.
func (r *Registry) Label(name string, originID string, payload map[string]any) string {
	if origin, ok := r.Lookup(name); ok {
		return origin.Label(originID, payload)
	}
	return name + " #" + originID
}

// Dependents lists the columns of other origins holding a foreign key to name.
func (r *Registry) Dependents(name string) []Dependent {
	target, ok := r.Lookup(name)
	if !ok {
		return nil
	}

	deps := make([]Dependent, 0)
	for _, kind := range r.order {
		for _, fk := range r.origins[kind].ForeignKeys {
			if fk.Table == target.Table() {
				deps = append(deps, Dependent{Origin: kind, Column: fk.Column})
			}
		}
	}
	return deps
}
