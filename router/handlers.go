package router

import (
	"sort"
	"sync"
)

// HandlerSet resolves "Controller@method" handler references. Values are any
// handler form accepted by Handle except another reference.
type HandlerSet struct {
	mu       sync.RWMutex
	handlers map[string]any
}

// NewHandlerSet creates an empty handler set
func NewHandlerSet() *HandlerSet {
	return &HandlerSet{handlers: make(map[string]any)}
}

// Add registers handler under ref, e.g. "UserController@show"
func (s *HandlerSet) Add(ref string, handler any) *HandlerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[ref] = handler
	return s
}

// Controller registers every entry of methods as controller@name
func (s *HandlerSet) Controller(controller string, methods map[string]any) *HandlerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range methods {
		s.handlers[controller+"@"+name] = h
	}
	return s
}

// Lookup returns the handler registered under ref
func (s *HandlerSet) Lookup(ref string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[ref]
	return h, ok
}

// Refs returns the registered references, sorted
func (s *HandlerSet) Refs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]string, 0, len(s.handlers))
	for ref := range s.handlers {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
