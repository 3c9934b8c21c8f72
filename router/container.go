package router

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// entry is a container registration: either a ready instance or a factory
// invoked on every resolution.
type entry struct {
	instance any
	factory  func(*Container) (any, error)
}

// Container is a dependency injection registry keyed by type.
//
// A type resolves, in order, to its registered instance, to the result of its
// registered factory, or, for unregistered pointers to structs, to a freshly
// constructed value whose `inject` tagged fields are resolved recursively.
// Untagged fields keep their zero value; a field tagged `inject:"optional"`
// stays zero when nothing can provide it.
type Container struct {
	mu      sync.RWMutex
	entries map[reflect.Type]entry
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{entries: make(map[reflect.Type]entry)}
}

// Register adds a ready instance keyed by T. Registering with an interface
// type parameter makes the instance resolvable through that interface.
func Register[T any](c *Container, service T) {
	c.set(reflect.TypeOf((*T)(nil)).Elem(), entry{instance: service})
}

// Provide adds a factory keyed by T. The factory runs on every resolution
// and may resolve its own dependencies from the container it receives.
func Provide[T any](c *Container, factory func(*Container) (T, error)) {
	c.set(reflect.TypeOf((*T)(nil)).Elem(), entry{factory: func(c *Container) (any, error) {
		return factory(c)
	}})
}

// Resolve builds or retrieves a T
func Resolve[T any](c *Container) (T, error) {
	var zero T
	v, err := c.resolve(reflect.TypeOf((*T)(nil)).Elem(), nil)
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// MustResolve is like Resolve but panics on failure
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether t was registered explicitly
func (c *Container) Has(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[t]
	return ok
}

func (c *Container) set(t reflect.Type, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[t] = e
}

func (c *Container) lookup(t reflect.Type) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[t]
	return e, ok
}

// resolve produces a value of type t. stack holds the types under
// construction and is used to report cycles.
func (c *Container) resolve(t reflect.Type, stack []reflect.Type) (reflect.Value, error) {
	if e, ok := c.lookup(t); ok {
		if e.factory != nil {
			v, err := e.factory(c)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("factory for %v: %w", t, err)
			}
			return valueOf(v, t), nil
		}
		return valueOf(e.instance, t), nil
	}

	if !constructible(t) {
		return reflect.Value{}, fmt.Errorf("%w: %v is not registered", ErrUnresolvable, t)
	}
	if err := checkCycle(t, stack); err != nil {
		return reflect.Value{}, err
	}
	stack = append(stack, t)

	v := reflect.New(t.Elem())
	st := t.Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag, tagged := field.Tag.Lookup("inject")
		if !tagged {
			continue
		}
		if !field.IsExported() {
			return reflect.Value{}, fmt.Errorf("%w: %v.%s is unexported", ErrUnresolvable, st, field.Name)
		}
		fv, err := c.resolve(field.Type, stack)
		if err != nil {
			if isOptional(tag) {
				continue
			}
			return reflect.Value{}, fmt.Errorf("cannot resolve %s for %v: %w", field.Name, t, err)
		}
		v.Elem().Field(i).Set(fv)
	}
	return v, nil
}

// check verifies statically that t can be resolved, without running factories
func (c *Container) check(t reflect.Type, stack []reflect.Type) error {
	if _, ok := c.lookup(t); ok {
		return nil
	}
	if !constructible(t) {
		return fmt.Errorf("%w: %v is not registered", ErrUnresolvable, t)
	}
	if err := checkCycle(t, stack); err != nil {
		return err
	}
	stack = append(stack, t)

	st := t.Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag, tagged := field.Tag.Lookup("inject")
		if !tagged {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("%w: %v.%s is unexported", ErrUnresolvable, st, field.Name)
		}
		if err := c.check(field.Type, stack); err != nil && !isOptional(tag) {
			return fmt.Errorf("cannot resolve %s for %v: %w", field.Name, t, err)
		}
	}
	return nil
}

// Check reports whether t can be resolved
func (c *Container) Check(t reflect.Type) error {
	return c.check(t, nil)
}

func checkCycle(t reflect.Type, stack []reflect.Type) error {
	for _, seen := range stack {
		if seen == t {
			return fmt.Errorf("%w: dependency cycle through %v", ErrUnresolvable, t)
		}
	}
	return nil
}

func constructible(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct
}

func isOptional(tag string) bool {
	for _, opt := range strings.Split(tag, ",") {
		if strings.TrimSpace(opt) == "optional" {
			return true
		}
	}
	return false
}

// valueOf converts a stored value to a reflect.Value assignable to t; nil
// entries become the zero value of t.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != t && rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out
	}
	return rv
}
