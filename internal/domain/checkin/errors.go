package checkin

import "errors"

var (
	ErrMalformedTimestamp = errors.New("malformed checkin timestamp")
	ErrMissingEmployee    = errors.New("checkin has no employee")
	ErrDuplicateCheckin   = errors.New("checkin already recorded")
)
