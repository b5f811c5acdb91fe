package fake

import "errors"

var (
	errNotConnected = errors.New("vehicleio/fake: not connected")
	errNotArmed     = errors.New("vehicleio/fake: not connected or not armed")
)
