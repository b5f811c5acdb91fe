package control

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

func TestMixerThrustOnlyRoundTripsXGeometry(t *testing.T) {
	hw := config.Default().Hardware
	hw.Geometry = config.GeometryX
	m := NewMixer(hw)

	wantThrust := 14.7
	motors := m.Allocate(wantThrust, r3.Vector{})
	gotThrust, gotTorque := m.Unmix(motors)

	test.That(t, gotThrust, test.ShouldAlmostEqual, wantThrust, 1e-6)
	test.That(t, gotTorque.Norm(), test.ShouldBeLessThan, 1e-9)
	for _, f := range motors {
		test.That(t, f, test.ShouldBeGreaterThanOrEqualTo, 0.0)
	}
}

func TestMixerTorqueRoundTripsXGeometry(t *testing.T) {
	hw := config.Default().Hardware
	hw.Geometry = config.GeometryX
	m := NewMixer(hw)

	wantThrust := 14.7
	wantTorque := r3.Vector{X: 0.2, Y: -0.1, Z: 0.05}
	motors := m.Allocate(wantThrust, wantTorque)
	gotThrust, gotTorque := m.Unmix(motors)

	test.That(t, gotThrust, test.ShouldAlmostEqual, wantThrust, 1e-6)
	test.That(t, gotTorque.X, test.ShouldAlmostEqual, wantTorque.X, 1e-6)
	test.That(t, gotTorque.Y, test.ShouldAlmostEqual, wantTorque.Y, 1e-6)
	test.That(t, gotTorque.Z, test.ShouldAlmostEqual, wantTorque.Z, 1e-6)
}

func TestMixerTorqueRoundTripsPlusGeometry(t *testing.T) {
	hw := config.Default().Hardware
	hw.Geometry = config.GeometryPlus
	m := NewMixer(hw)

	wantThrust := 14.7
	wantTorque := r3.Vector{X: 0.15, Y: 0.1, Z: -0.04}
	motors := m.Allocate(wantThrust, wantTorque)
	gotThrust, gotTorque := m.Unmix(motors)

	test.That(t, gotThrust, test.ShouldAlmostEqual, wantThrust, 1e-6)
	test.That(t, gotTorque.X, test.ShouldAlmostEqual, wantTorque.X, 1e-6)
	test.That(t, gotTorque.Y, test.ShouldAlmostEqual, wantTorque.Y, 1e-6)
	test.That(t, gotTorque.Z, test.ShouldAlmostEqual, wantTorque.Z, 1e-6)
}

func TestMixerSaturatesToNonNegativeMotorThrust(t *testing.T) {
	hw := config.Default().Hardware
	m := NewMixer(hw)

	// A large negative-thrust request should clamp every motor to zero,
	// not go negative.
	motors := m.Allocate(-50, r3.Vector{})
	for _, f := range motors {
		test.That(t, f, test.ShouldEqual, 0.0)
	}
}
