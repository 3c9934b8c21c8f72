package router

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ManifestEntry is one route of a YAML manifest. The aliases router,
// httpMethod and api are accepted for path, method and isApi.
type ManifestEntry struct {
	Path       string   `yaml:"path"`
	Router     string   `yaml:"router"`
	Method     string   `yaml:"method"`
	HTTPMethod string   `yaml:"httpMethod"`
	IsAPI      *bool    `yaml:"isApi"`
	API        *bool    `yaml:"api"`
	Name       string   `yaml:"name"`
	Middleware []string `yaml:"middleware"`
	Handler    string   `yaml:"handler"`
}

// Manifest is a route manifest document
type Manifest struct {
	Routes []ManifestEntry `yaml:"routes"`
}

// Attribute converts the entry, applying the alias precedence router over
// path, method over httpMethod and isApi over api.
func (e ManifestEntry) Attribute() Attribute {
	attr := Attribute{
		Path:       e.Router,
		Method:     e.Method,
		Name:       e.Name,
		Middleware: e.Middleware,
		Handler:    e.Handler,
	}
	if attr.Path == "" {
		attr.Path = e.Path
	}
	if attr.Method == "" {
		attr.Method = e.HTTPMethod
	}
	switch {
	case e.IsAPI != nil:
		attr.API = *e.IsAPI
	case e.API != nil:
		attr.API = *e.API
	}
	return attr
}

// LoadManifest registers the routes of a YAML manifest in the active scope.
// Handlers are "Controller@method" references resolved through the router's
// HandlerSet.
//
//	routes:
//	  - path: /users/{id}
//	    method: GET
//	    name: users.show
//	    middleware: [auth]
//	    handler: UserController@show
func (r *Router) LoadManifest(rd io.Reader) error {
	var doc Manifest
	if err := yaml.NewDecoder(rd).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &RegistrationError{Kind: ErrInvalidManifest, Err: err}
	}

	for i, entry := range doc.Routes {
		attr := entry.Attribute()
		if attr.Path == "" {
			continue
		}
		if entry.Handler == "" {
			return &RegistrationError{Kind: ErrInvalidManifest, Path: attr.Path, Err: fmt.Errorf("entry %d has no handler", i)}
		}
		if err := r.registerAttribute(attr); err != nil {
			return fmt.Errorf("manifest entry %d: %w", i, err)
		}
	}
	return nil
}
