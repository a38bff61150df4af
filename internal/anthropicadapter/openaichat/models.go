package openaichat

import (
	"slices"
	"strings"
)

// ModelNamespace routes a model to an OpenAI-compatible backend. It is part of
// the translated model name and stripped before the request goes on the wire.
const ModelNamespace = "openai/"

// lastResortModel is used when neither the table nor the configured default
// name a backend model.
const lastResortModel = "gpt-4"

// ModelResolver maps Anthropic model names to backend model names and back.
// It is immutable after construction and safe for concurrent use.
type ModelResolver struct {
	outbound     map[string]string
	inbound      map[string]string
	defaultModel string
}

// NewModelResolver builds a resolver from a table of Anthropic model name to
// backend model name. Entries with an empty target map to defaultModel.
//
// Several Anthropic names may map to the same backend model, so the reverse
// direction is lossy; the lexicographically smallest Anthropic name wins.
func NewModelResolver(table map[string]string, defaultModel string) *ModelResolver {
	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		defaultModel = lastResortModel
	}

	r := &ModelResolver{
		outbound:     make(map[string]string, len(table)),
		inbound:      make(map[string]string, len(table)),
		defaultModel: defaultModel,
	}

	for alias, target := range table {
		if strings.TrimSpace(target) == "" {
			target = defaultModel
		}
		r.outbound[alias] = target

		key := stripNamespace(target)
		if existing, ok := r.inbound[key]; !ok || alias < existing {
			r.inbound[key] = alias
		}
	}

	return r
}

// ResolveOutbound returns the namespaced backend model for an Anthropic model
// name. Unknown names resolve to the default backend model. Applying it to its
// own result does not stack namespaces.
func (r *ModelResolver) ResolveOutbound(name string) string {
	target, ok := r.outbound[name]
	if !ok {
		target = r.defaultModel
	}
	return withNamespace(target)
}

// WireModel returns the model name sent to the backend for name.
func (r *ModelResolver) WireModel(name string) string {
	return wireModel(r.ResolveOutbound(name))
}

// ResolveInbound returns the Anthropic model name that maps to backendName.
// The namespace is ignored when matching. ok is false when no entry maps to
// backendName.
func (r *ModelResolver) ResolveInbound(backendName string) (name string, ok bool) {
	name, ok = r.inbound[stripNamespace(backendName)]
	return name, ok
}

// resolveInboundOr is ResolveInbound with an explicit fallback.
func (r *ModelResolver) resolveInboundOr(backendName, fallback string) string {
	if name, ok := r.ResolveInbound(backendName); ok {
		return name
	}
	return fallback
}

// Aliases returns the Anthropic model names of the table, sorted.
func (r *ModelResolver) Aliases() []string {
	aliases := make([]string, 0, len(r.outbound))
	for alias := range r.outbound {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	return aliases
}

func withNamespace(model string) string {
	if strings.HasPrefix(model, ModelNamespace) {
		return model
	}
	return ModelNamespace + model
}

func stripNamespace(model string) string {
	return strings.TrimPrefix(model, ModelNamespace)
}
