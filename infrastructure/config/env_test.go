package config

import (
	"errors"
	"testing"

	domainconfig "github.com/felixgeelhaar/kvtrack/domain/config"
)

func TestEnvExpander_Expand(t *testing.T) {
	t.Setenv("KVTRACK_TEST_HOST", "redis.internal")
	t.Setenv("KVTRACK_TEST_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bracket syntax", input: "${KVTRACK_TEST_HOST}", want: "redis.internal"},
		{name: "embedded in text", input: "addr: ${KVTRACK_TEST_HOST}:6379", want: "addr: redis.internal:6379"},
		{name: "default used when unset", input: "${KVTRACK_TEST_UNSET:-localhost}", want: "localhost"},
		{name: "default used when empty", input: "${KVTRACK_TEST_EMPTY:-fallback}", want: "fallback"},
		{name: "default ignored when set", input: "${KVTRACK_TEST_HOST:-localhost}", want: "redis.internal"},
		{name: "unset becomes empty", input: "x${KVTRACK_TEST_UNSET}y", want: "xy"},
		{name: "bare dollar untouched", input: "password: pa$KVTRACK_TEST_HOST", want: "password: pa$KVTRACK_TEST_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &envExpander{}
			got, err := e.Expand(tt.input)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvExpander_Required(t *testing.T) {
	_, err := (&envExpander{}).Expand("${KVTRACK_TEST_REQUIRED:?must be set}")
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
}

func TestExpandEnvStrict(t *testing.T) {
	if _, err := ExpandEnvStrict("${KVTRACK_TEST_MISSING}"); !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("ExpandEnvStrict() error = %v, want ErrMissingEnvVar", err)
	}
	if got := ExpandEnv("${KVTRACK_TEST_MISSING}"); got != "" {
		t.Errorf("ExpandEnv() = %q, want empty", got)
	}
}
