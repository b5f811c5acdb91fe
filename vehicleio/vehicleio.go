// Package vehicleio defines Component D's external collaborator boundary:
// the abstract Vehicle I/O interface consumed by the core (spec.md §6
// "Vehicle I/O"). Concrete implementations (MAVLink, AirSim RPC, SITL) live
// outside this module; vehicleio/fake provides a deterministic in-memory
// stand-in used by edge mode.
package vehicleio

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/Pasqui1010/DART-Planner-sub001/control"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
)

// Mode is the vehicle's flight-controller mode. In this module it is set by
// cmd/dart-planner when it wires edge mode.
type Mode string

const (
	ModeManual   Mode = "manual"
	ModeOffboard Mode = "offboard"
	ModeLand     Mode = "land"
)

// Command is the tagged sum type of outputs the core can send a vehicle
// (spec.md §9 "Dynamic typing at boundaries": replace with tagged sum types
// for commands). isVehicleCommand is unexported so only this package's two
// variants can implement Command.
type Command interface {
	isVehicleCommand()
}

// BodyRateCommand is Component C's direct output: collective thrust plus a
// body-rate setpoint for vehicles with their own inner rate loop.
type BodyRateCommand struct {
	Thrust    float64
	BodyRates r3.Vector
}

func (BodyRateCommand) isVehicleCommand() {}

// MotorThrustCommand is a fully mixed per-rotor thrust command, for vehicles
// without an onboard mixer.
type MotorThrustCommand struct {
	Motors control.MotorThrusts
}

func (MotorThrustCommand) isVehicleCommand() {}

// Vehicle is the abstract interface every I/O backend implements (spec.md
// §6 "Vehicle I/O").
type Vehicle interface {
	// Connect and Disconnect are async and idempotent: calling either twice
	// in a row is a no-op, not an error.
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// GetState returns the latest estimator fix with timestamp.
	GetState() (state.DroneState, error)

	// SendCommand delivers cmd with best-effort ordering.
	SendCommand(cmd Command) error

	Arm() error
	Disarm() error
	SetMode(mode Mode) error
}
