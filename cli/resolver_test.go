package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func TestResolveYAML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want config
	}{
		{
			name: "empty",
			src:  "",
			want: config{},
		},
		{
			name: "flat",
			src:  "log-level: debug\nworkers: 4\nratio: 0.5\nrecursive: true\n",
			want: config{"log-level": "debug", "workers": "4", "ratio": "0.5", "recursive": true},
		},
		{
			name: "nested",
			src:  "log:\n  level: info\n  pretty: false\ngrammar:\n  require: ^1.2\n",
			want: config{"log-level": "info", "log-pretty": false, "grammar-require": "^1.2"},
		},
		{
			name: "list",
			src:  "require:\n  - total > 0\n  - failed == 0\n",
			want: config{"require": []any{"total > 0", "failed == 0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolveYAML(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("resolveYAML: %v", err)
			}

			if diff := cmp.Diff(tt.want, r); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveYAML_Invalid(t *testing.T) {
	for _, src := range []string{"- a\n- b\n", "key: [\n"} {
		if _, err := resolveYAML(strings.NewReader(src)); !errors.Is(err, ErrConfig) {
			t.Errorf("resolveYAML(%q) error = %v, want ErrConfig", src, err)
		}
	}
}

func TestConfig_Resolve(t *testing.T) {
	cfg := config{"log-level": "debug", "max_depth": "32"}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"max-depth", "32"},
		{"workers", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := &kong.Flag{Value: &kong.Value{Name: tt.flag}}

			got, err := cfg.Resolve(nil, nil, flag)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%s) = %v, want %v", tt.flag, got, tt.want)
			}
		})
	}
}

// TestResolveYAML_Kong checks that file values reach parsed flags and that
// command-line flags take precedence.
func TestResolveYAML_Kong(t *testing.T) {
	var cli struct {
		LogLevel string   `default:"warn"`
		Workers  int      `default:"0"`
		Require  []string
	}

	r, err := resolveYAML(strings.NewReader("log_level: debug\nworkers: 3\nrequire: [total > 0]\n"))
	if err != nil {
		t.Fatal(err)
	}

	parser, err := kong.New(&cli, kong.Resolvers(r))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--workers=5"}); err != nil {
		t.Fatal(err)
	}

	if cli.LogLevel != "debug" || cli.Workers != 5 {
		t.Errorf("got level %q workers %d, want debug and 5", cli.LogLevel, cli.Workers)
	}

	if diff := cmp.Diff([]string{"total > 0"}, cli.Require); diff != "" {
		t.Errorf("require mismatch (-want +got):\n%s", diff)
	}
}
