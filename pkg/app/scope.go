package app

import (
	"errors"
	"strings"
)

// Scope is the parsed form of the SCOPE the program runs in, formatted as
// {environment}-{role}[-{metadata}]. Only the environment is required, for
// instance: test, develop-indexer or production-indexer-feature-new-context.
type Scope struct {
	Environment string
	Role        string
	Metadata    string
}

// ParseScope parses a scope string. It is case-insensitive.
func ParseScope(scope string) (Scope, error) {
	if scope == "" {
		return Scope{}, errors.New("app: scope is empty")
	}

	parts := strings.SplitN(strings.ToLower(scope), "-", 3)

	var s Scope
	switch len(parts) {
	case 1:
		s.Environment = parts[0]
	case 2:
		s.Environment, s.Role = parts[0], parts[1]
	default:
		s.Environment, s.Role, s.Metadata = parts[0], parts[1], parts[2]
	}
	return s, nil
}

// IsLocal reports whether the scope is a developer machine.
func (s Scope) IsLocal() bool {
	return strings.EqualFold(s.Environment, _defaultScopeEnvironment)
}
