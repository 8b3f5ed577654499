package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/apiarian/village/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue string `env:"STRING_VALUE" envDefault:"default"`
	IntValue    int    `env:"INT_VALUE" envDefault:"42"`
	BoolValue   bool   `env:"BOOL_VALUE" envDefault:"true"`
	NoEnvTag    string
	Nested      testNestedConfig `envPrefix:"NESTED_"`
}

type testNestedConfig struct {
	NestedString string `env:"STRING" envDefault:"nested-default"`
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		envVars   map[string]string
		want      testConfig
		wantErr   bool
	}{
		{
			name:    "uses default values when env vars not set",
			envVars: map[string]string{},
			want: testConfig{
				StringValue: "default",
				IntValue:    42,
				BoolValue:   true,
				Nested:      testNestedConfig{NestedString: "nested-default"},
			},
		},
		{
			name: "reads environment variables",
			envVars: map[string]string{
				"STRING_VALUE":  "env-value",
				"INT_VALUE":     "123",
				"BOOL_VALUE":    "false",
				"NESTED_STRING": "env-nested",
			},
			want: testConfig{
				StringValue: "env-value",
				IntValue:    123,
				BoolValue:   false,
				Nested:      testNestedConfig{NestedString: "env-nested"},
			},
		},
		{
			name:      "applies namespace prefix",
			namespace: "VILLAGE",
			envVars: map[string]string{
				"VILLAGE_STRING_VALUE":  "namespaced",
				"VILLAGE_NESTED_STRING": "namespaced-nested",
				"INT_VALUE":             "7",
			},
			want: testConfig{
				StringValue: "namespaced",
				IntValue:    42,
				BoolValue:   true,
				Nested:      testNestedConfig{NestedString: "namespaced-nested"},
			},
		},
		{
			name:    "fails on invalid int",
			envVars: map[string]string{"INT_VALUE": "not-a-number"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var got testConfig

			err := Parse(context.Background(), &got, tt.namespace)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.namespace, got.Namespace())

			got.EnvConfig = EnvConfig{}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_InvalidConfig(t *testing.T) {
	t.Parallel()

	type noEmbed struct {
		Value string `env:"VALUE"`
	}

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "not a pointer", cfg: noEmbed{}},
		{name: "missing EnvConfig", cfg: &noEmbed{}},
		{name: "pointer to non-struct", cfg: new(string)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
