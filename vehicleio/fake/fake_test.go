package fake

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/vehicleio"
)

func hoverState() state.DroneState {
	return state.DroneState{Position: r3.Vector{Z: 5}, Attitude: spatial.Identity, Frame: spatial.ENU}
}

func TestGetStateFailsUntilConnected(t *testing.T) {
	v := New(hoverState(), 1.5, 0.5, spatial.ENU)
	_, err := v.GetState()
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, v.Connect(context.Background()), test.ShouldBeNil)
	_, err = v.GetState()
	test.That(t, err, test.ShouldBeNil)
}

func TestSendCommandRequiresArmed(t *testing.T) {
	v := New(hoverState(), 1.5, 0.5, spatial.ENU)
	test.That(t, v.Connect(context.Background()), test.ShouldBeNil)

	err := v.SendCommand(vehicleio.BodyRateCommand{Thrust: 0.5})
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, v.Arm(), test.ShouldBeNil)
	err = v.SendCommand(vehicleio.BodyRateCommand{Thrust: 0.5})
	test.That(t, err, test.ShouldBeNil)
}

func TestStepAtHoverThrustHoldsAltitude(t *testing.T) {
	v := New(hoverState(), 1.5, 0.5, spatial.ENU)
	test.That(t, v.Connect(context.Background()), test.ShouldBeNil)
	test.That(t, v.Arm(), test.ShouldBeNil)
	test.That(t, v.SendCommand(vehicleio.BodyRateCommand{Thrust: 0.5}), test.ShouldBeNil)

	for i := 0; i < 200; i++ {
		v.Step(0.01)
	}

	s, err := v.GetState()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Position.Z, test.ShouldAlmostEqual, 5.0, 0.05)
}

func TestStepBelowHoverThrustDescends(t *testing.T) {
	v := New(hoverState(), 1.5, 0.5, spatial.ENU)
	test.That(t, v.Connect(context.Background()), test.ShouldBeNil)
	test.That(t, v.Arm(), test.ShouldBeNil)
	test.That(t, v.SendCommand(vehicleio.BodyRateCommand{Thrust: 0.0}), test.ShouldBeNil)

	for i := 0; i < 100; i++ {
		v.Step(0.01)
	}

	s, err := v.GetState()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Position.Z, test.ShouldBeLessThan, 5.0)
	test.That(t, s.Velocity.Z, test.ShouldBeLessThan, 0.0)
}

func TestDisarmClearsLastCommand(t *testing.T) {
	v := New(hoverState(), 1.5, 0.5, spatial.ENU)
	test.That(t, v.Connect(context.Background()), test.ShouldBeNil)
	test.That(t, v.Arm(), test.ShouldBeNil)
	test.That(t, v.SendCommand(vehicleio.BodyRateCommand{Thrust: 0.5}), test.ShouldBeNil)
	test.That(t, v.Disarm(), test.ShouldBeNil)

	thrust, rates := v.commandLocked()
	test.That(t, thrust, test.ShouldEqual, 0.0)
	test.That(t, rates.Norm(), test.ShouldEqual, 0.0)
}
