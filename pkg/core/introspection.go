package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string `json:"repository_type"`
	Transactional  bool   `json:"transactional"`
	Watchable      bool   `json:"watchable"`
	LastOperation  string `json:"last_operation,omitempty"`
	Creates        int    `json:"creates"`
	Edits          int    `json:"edits"`
	Searches       int    `json:"searches"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	_, transactional := s.repo.(Transactional)
	_, watchable := s.repo.(Watchable)

	return ServiceState{
		RepositoryType: repoType,
		Transactional:  transactional,
		Watchable:      watchable,
		LastOperation:  s.lastOp,
		Creates:        s.creates,
		Edits:          s.edits,
		Searches:       s.searches,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
