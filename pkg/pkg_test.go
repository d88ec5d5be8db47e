package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	v := Version()
	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(v) {
		t.Errorf("Version() = %q, want semantic version", v)
	}
	if strings.ContainsAny(v, " \n") {
		t.Errorf("Version() = %q contains whitespace", v)
	}
}

func TestAuthorStruct(t *testing.T) {
	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestPrefix_TestBinary(t *testing.T) {
	// go test runs a "<pkg>.test" binary.
	if got := Prefix(); got != Name {
		t.Errorf("Prefix() = %q, want %q", got, Name)
	}
	if got := EnvPrefix(); got != "RTGRAMMAR_" {
		t.Errorf("EnvPrefix() = %q, want %q", got, "RTGRAMMAR_")
	}
}

func TestConfigDir_EndsWithPrefix(t *testing.T) {
	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"cache":  CacheDir(),
	} {
		if filepath.Base(dir) != Prefix() && filepath.Base(dir) != "."+Prefix() {
			t.Errorf("%s dir %q does not end with %q", name, dir, Prefix())
		}
	}
}

func TestError_Format(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"msg only", NewError("read failed"), "read failed"},
		{"msg and cause", NewError("read failed").Wrap(cause), "read failed: boom"},
		{"cause only", WrapError(cause), "boom"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsSentinel(t *testing.T) {
	sentinel := NewError("grammar load error")
	cause := errors.New("no sections")

	err := fmt.Errorf("startup: %w",
		sentinel.Wrap(cause).With(slog.String("path", "g.yaml")))

	if !errors.Is(err, sentinel) {
		t.Error("wrapped copy does not match sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped copy does not match cause")
	}
	if errors.Is(err, NewError("other")) {
		t.Error("unexpected match with unrelated sentinel")
	}
	if len(sentinel.Attrs()) != 0 {
		t.Error("With mutated the sentinel")
	}
}

func TestError_LogValue(t *testing.T) {
	err := NewError("lex error").
		Wrap(errors.New("unterminated string")).
		With(slog.Int("line", 3))

	got := map[string]string{}
	for _, a := range err.LogValue().Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{
		"error": "lex error",
		"cause": "unterminated string",
		"line":  "3",
	}

	for k, v := range want {
		if got[k] != v {
			t.Errorf("LogValue[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestWrapError_ReturnsExisting(t *testing.T) {
	orig := NewError("x")
	if WrapError(fmt.Errorf("ctx: %w", orig)) != orig {
		t.Error("WrapError did not return the existing *Error")
	}
}
