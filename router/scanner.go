package router

import (
	"fmt"
	"strings"
)

// Attribute is the declarative description of one route
type Attribute struct {
	// Path is the route path; entries without one are skipped
	Path string
	// Method is one verb or several joined with "|"; GET when empty
	Method     string
	API        bool
	Name       string
	Middleware []string
	// Handler is any handler form accepted by Handle
	Handler any
}

// Controller declares its routes as attributes
type Controller interface {
	Routes() []Attribute
}

// ScanControllers registers the routes declared by each controller in the
// active scope, exactly as explicit Handle and HandleAPI calls would, and names
// those that declare a name.
func (r *Router) ScanControllers(controllers ...Controller) error {
	for _, ctrl := range controllers {
		if ctrl == nil {
			continue
		}
		for _, attr := range ctrl.Routes() {
			if err := r.registerAttribute(attr); err != nil {
				return fmt.Errorf("controller %T: %w", ctrl, err)
			}
		}
	}
	return nil
}

func (r *Router) registerAttribute(attr Attribute) error {
	if strings.TrimSpace(attr.Path) == "" {
		return nil
	}
	method := strings.ToUpper(strings.TrimSpace(attr.Method))
	if method == "" {
		method = string(MethodGet)
	}
	spec := method + " " + attr.Path

	g := r.scope()
	var err error
	if attr.API {
		err = g.HandleAPI(spec, attr.Handler, Names(attr.Middleware...)...)
	} else {
		err = g.Handle(spec, attr.Handler, Names(attr.Middleware...)...)
	}
	if err != nil {
		return err
	}
	if attr.Name != "" {
		g.Name(attr.Name)
	}
	return nil
}
