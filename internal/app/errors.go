package app

import "errors"

var errNoDatabase = errors.New("operation requires a database connection")
