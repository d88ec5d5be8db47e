package cmd

import "github.com/johncclayton/rt-grammar/pkg"

var (
	// ErrValidation is returned when a script fails to parse or a
	// requirement does not hold. The report has already been printed.
	ErrValidation  = pkg.NewError("validation failed")
	ErrReadSource  = pkg.NewError("read source")
	ErrWriteOutput = pkg.NewError("write output")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
)
