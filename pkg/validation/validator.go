// Package validation binds request bodies into structs and validates them
// with go-playground/validator.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
)

// Validator wraps go-playground/validator
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator instance with custom rules
func NewValidator() *Validator {
	v := validator.New()
	RegisterCustomValidators(v)
	return &Validator{validator: v}
}

// Validate validates a struct. Failures are *ValidationError values.
func (v *Validator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		return NewValidationError(err)
	}
	return nil
}

func getValidationMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, param)
	case "username":
		return fmt.Sprintf("%s must be 3-30 characters, alphanumeric with _ or -", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// RegisterCustomValidators registers all custom validation rules
func RegisterCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		username := fl.Field().String()
		if len(username) < 3 || len(username) > 30 {
			return false
		}
		for i, r := range username {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '_' || r == '-') {
				return false
			}
			if (r == '_' || r == '-') && (i == 0 || i == len(username)-1) {
				return false
			}
		}
		return true
	})
}

// ValidationError maps each failing field to a readable message
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError creates a validation error from validator errors
func NewValidationError(err error) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string)}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			field := strings.ToLower(e.Field())
			ve.Errors[field] = getValidationMessage(field, e.Tag(), e.Param())
		}
	}
	return ve
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(ve.Errors))
	for field := range ve.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, field+": "+ve.Errors[field])
	}
	return strings.Join(msgs, "; ")
}

// Response converts the error into the standard error envelope
func (ve *ValidationError) Response() *apperrors.ErrorResponse {
	details := make(map[string]any, len(ve.Errors))
	for k, v := range ve.Errors {
		details[k] = v
	}
	return apperrors.NewWithDetails(apperrors.CodeValidationFailed, ve.Error(), details)
}

// Bind decodes the request body into dst, a pointer to a struct. JSON bodies
// are decoded with encoding/json; form bodies fill fields by their form tag.
func Bind(req *http.Request, dst any) error {
	ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if ct == "application/json" {
		if req.Body == nil || req.ContentLength == 0 {
			return nil
		}
		if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
		return nil
	}

	if err := req.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return bindForm(req.Form, dst)
}

func bindForm(form map[string][]string, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target must be a pointer to a struct, got %T", dst)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			continue
		}
		values, ok := form[name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := setField(v.Field(i), values[0]); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}

// BindAndValidate binds the request into dst and validates it. Both failures
// come back as *errors.ErrorResponse values the router renders as 400.
func (v *Validator) BindAndValidate(req *http.Request, dst any) error {
	if err := Bind(req, dst); err != nil {
		return apperrors.NewWithDetails(apperrors.CodeInvalidFormat, "Invalid request format",
			map[string]any{"error": err.Error()})
	}
	if err := v.Validate(dst); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return ve.Response()
		}
		return apperrors.FromValidation(err)
	}
	return nil
}
