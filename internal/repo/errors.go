package repo

import "errors"

// ErrUnsupportedDriver — Open получил драйвер, отличный от postgres и sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")
