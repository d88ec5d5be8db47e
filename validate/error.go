package validate

import "github.com/johncclayton/rt-grammar/pkg"

var (
	ErrDiscover = pkg.NewError("discover script files")
	ErrRead     = pkg.NewError("read script file")
	ErrStatus   = pkg.NewError("update status file")
	ErrHistory  = pkg.NewError("record run history")
	ErrRequire  = pkg.NewError("requirement not met")
	ErrBadRule  = pkg.NewError("invalid requirement")
	ErrWatch    = pkg.NewError("watch files")
)
