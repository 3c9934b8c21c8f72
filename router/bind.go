package router

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
)

var (
	contextType        = reflect.TypeOf((**Context)(nil)).Elem()
	requestType        = reflect.TypeOf((**http.Request)(nil)).Elem()
	responseWriterType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	errorType          = reflect.TypeOf((*error)(nil)).Elem()
)

type argSource uint8

const (
	argContext argSource = iota
	argRequest
	argResponse
	argDependency
	argPathParam
)

type argPlan struct {
	source argSource
	typ    reflect.Type
}

// Bind adapts an arbitrary function into a HandlerFunc. Parameters are filled
// in declaration order:
//
//   - *Context, *http.Request and http.ResponseWriter receive the current call
//   - pointers to structs and interfaces are resolved from the router's Container
//   - scalar parameters (string, bool, ints, uints, floats) consume the next
//     captured path segment, or get their zero value once the segments run out
//
// fn may return nothing, a value, an error, or a value and an error. Bind
// panics when fn does not have a supported shape.
func Bind(fn any) HandlerFunc {
	h, _, err := bind(fn)
	if err != nil {
		panic(err)
	}
	return h
}

// bind builds the handler and reports the dependency types it needs so that
// Freeze can verify them.
func bind(fn any) (HandlerFunc, []reflect.Type, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("%T is not a function", fn)}
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("variadic handler %v", t)}
	}

	plan := make([]argPlan, t.NumIn())
	var deps []reflect.Type
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		switch {
		case in == contextType:
			plan[i] = argPlan{source: argContext, typ: in}
		case in == requestType:
			plan[i] = argPlan{source: argRequest, typ: in}
		case in == responseWriterType:
			plan[i] = argPlan{source: argResponse, typ: in}
		case isDependency(in):
			plan[i] = argPlan{source: argDependency, typ: in}
			deps = append(deps, in)
		case isScalar(in):
			plan[i] = argPlan{source: argPathParam, typ: in}
		default:
			return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("unsupported parameter %d of type %v", i, in)}
		}
	}

	collect, err := resultCollector(t)
	if err != nil {
		return nil, nil, err
	}

	h := func(c *Context) (any, error) {
		args := make([]reflect.Value, len(plan))
		next := 0
		for i, p := range plan {
			switch p.source {
			case argContext:
				args[i] = reflect.ValueOf(c)
			case argRequest:
				args[i] = reflect.ValueOf(c.Request())
			case argResponse:
				args[i] = reflect.ValueOf(c.Response())
			case argDependency:
				dep, err := c.router.container.resolve(p.typ, nil)
				if err != nil {
					return nil, err
				}
				args[i] = dep
			case argPathParam:
				if next >= len(c.params) {
					args[i] = reflect.Zero(p.typ)
					continue
				}
				arg, err := convertParam(c.params[next], p.typ)
				if err != nil {
					return nil, apperrors.NewWithDetails(apperrors.CodeInvalidFormat, "invalid path parameter", map[string]any{
						"position": next,
						"value":    c.params[next],
					})
				}
				args[i] = arg
				next++
			}
		}
		return collect(v.Call(args))
	}
	return h, deps, nil
}

// resultCollector maps the supported return shapes onto (any, error)
func resultCollector(t reflect.Type) (func([]reflect.Value) (any, error), error) {
	switch t.NumOut() {
	case 0:
		return func([]reflect.Value) (any, error) { return nil, nil }, nil
	case 1:
		if t.Out(0) == errorType {
			return func(out []reflect.Value) (any, error) { return nil, asError(out[0]) }, nil
		}
		return func(out []reflect.Value) (any, error) { return out[0].Interface(), nil }, nil
	case 2:
		if t.Out(1) != errorType {
			return nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("second result of %v must be error", t)}
		}
		return func(out []reflect.Value) (any, error) {
			return out[0].Interface(), asError(out[1])
		}, nil
	default:
		return nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("too many results in %v", t)}
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func isDependency(t reflect.Type) bool {
	return constructible(t) || t.Kind() == reflect.Interface
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertParam converts a captured segment into the parameter's kind
func convertParam(raw string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	}
	return v, nil
}
