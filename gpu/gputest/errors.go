package gputest

import "errors"

var errInvalidGeometry = errors.New("gputest: invalid geometry")
