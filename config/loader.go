package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix prefixes every environment override, e.g. DFRAME_SERVER_ADDRESS
const DefaultEnvPrefix = "DFRAME_"

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// SimpleLoader reads an optional YAML file and applies environment overrides
type SimpleLoader struct {
	yamlFile  string
	envPrefix string
}

// NewSimpleLoader creates a new simple configuration loader
func NewSimpleLoader() *SimpleLoader {
	return &SimpleLoader{
		envPrefix: DefaultEnvPrefix,
	}
}

// WithYAMLFile sets the YAML configuration file path
func (l *SimpleLoader) WithYAMLFile(path string) *SimpleLoader {
	l.yamlFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix
func (l *SimpleLoader) WithEnvPrefix(prefix string) *SimpleLoader {
	l.envPrefix = prefix
	return l
}

// Load fills cfg from defaults, the YAML file and the environment, in that order
func (l *SimpleLoader) Load(cfg *Config) error {
	*cfg = *DefaultConfig()

	if l.yamlFile != "" {
		if err := l.loadFromYAML(cfg); err != nil {
			return fmt.Errorf("failed to load YAML config: %w", err)
		}
	}

	if err := loadEnv(cfg, l.envPrefix); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	return cfg.Validate()
}

// loadFromYAML loads configuration from a YAML file. A missing file is not an error.
func (l *SimpleLoader) loadFromYAML(cfg *Config) error {
	data, err := os.ReadFile(l.yamlFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadEnv applies prefixed environment variables to cfg, walking nested
// structs by their env tags.
func loadEnv(cfg *Config, prefix string) error {
	return loadStructFromEnv(reflect.ValueOf(cfg).Elem(), prefix)
}

func loadStructFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envName, _, _ := strings.Cut(envTag, ",")
		fullEnvName := prefix + envName

		if field.Kind() == reflect.Struct && fieldType.Type != timeType {
			if err := loadStructFromEnv(field, fullEnvName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(fullEnvName)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, fullEnvName, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value from a string
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
