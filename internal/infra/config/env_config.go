package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
// that embeds EnvConfig.
var ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into cfg.
// cfg must embed EnvConfig; fields use `env`/`envDefault` tags and nested
// structs are grouped with `envPrefix`. A non-empty namespace is prepended
// to every variable name as "<NAMESPACE>_".
func Parse(_ context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	prefix := ""
	if namespace != "" {
		prefix = namespace + "_"
	}

	//nolint:exhaustruct
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
