package control

import "errors"

var (
	errInvalidState     = errors.New("control: drone state failed validity check (non-unit quaternion or non-finite field)")
	errNonFiniteCommand = errors.New("control: computed command contains a non-finite value")
)
