package repository

import "errors"

// ErrInvalidImageRef means the reference is neither a usable URL nor a path.
var ErrInvalidImageRef = errors.New("invalid image reference")
