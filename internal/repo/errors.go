package repo

import "errors"

// ErrAlreadyExists — событие с таким ID уже записано.
var ErrAlreadyExists = errors.New("already exists")
