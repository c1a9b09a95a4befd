package repository

import "errors"

// ErrNoRowsAffected indicates an update targeted a missing row.
var ErrNoRowsAffected = errors.New("repository: no rows affected")
