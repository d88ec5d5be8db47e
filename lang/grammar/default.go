package grammar

import (
	_ "embed"
	"sync"
)

//go:embed default.yaml
var defaultSource []byte

// DefaultSource returns the built-in grammar description in YAML.
func DefaultSource() []byte { return append([]byte(nil), defaultSource...) }

// Default returns the built-in grammar table. It panics if the embedded
// description is invalid, which the package tests rule out.
//
//nolint:gochecknoglobals
var Default = sync.OnceValue(func() *Table {
	t, err := Parse(defaultSource, FormatYAML)
	if err != nil {
		panic(err)
	}

	return t
})
