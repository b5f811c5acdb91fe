package state

import (
	"testing"

	"go.viam.com/test"
)

func TestWatchdogNominalSequence(t *testing.T) {
	w := NewWatchdog(nil)
	test.That(t, w.State(), test.ShouldEqual, Init)

	w.ReadyForStandby()
	test.That(t, w.State(), test.ShouldEqual, Standby)

	test.That(t, w.Arm(), test.ShouldBeTrue)
	test.That(t, w.State(), test.ShouldEqual, Armed)

	test.That(t, w.TakeOff(), test.ShouldBeTrue)
	test.That(t, w.State(), test.ShouldEqual, Flying)
}

func TestWatchdogPlanTimeoutGoesSafeHover(t *testing.T) {
	w := NewWatchdog(nil)
	w.ReadyForStandby()
	w.Arm()
	w.TakeOff()

	w.OnPlanTimeout()
	test.That(t, w.State(), test.ShouldEqual, SafeHover)
}

func TestWatchdogStateTimeoutAlwaysEmergencyStop(t *testing.T) {
	w := NewWatchdog(nil)
	w.ReadyForStandby()
	w.Arm()
	w.TakeOff()

	w.OnStateTimeout()
	test.That(t, w.State(), test.ShouldEqual, EmergencyStop)
}

func TestWatchdogEmergencyStopIsTerminalUntilManualReset(t *testing.T) {
	w := NewWatchdog(nil)
	w.ReadyForStandby()
	w.Arm()
	w.TakeOff()
	w.OnStateTimeout()
	test.That(t, w.State(), test.ShouldEqual, EmergencyStop)

	w.OnPlanTimeout()
	w.OnGeofenceViolation()
	w.OnLowBattery()
	test.That(t, w.State(), test.ShouldEqual, EmergencyStop)

	w.ManualReset()
	test.That(t, w.State(), test.ShouldEqual, Standby)
}

func TestWatchdogGeofenceAndBatteryGoLand(t *testing.T) {
	w := NewWatchdog(nil)
	w.ReadyForStandby()
	w.Arm()
	w.TakeOff()
	w.OnGeofenceViolation()
	test.That(t, w.State(), test.ShouldEqual, Land)

	w2 := NewWatchdog(nil)
	w2.ReadyForStandby()
	w2.Arm()
	w2.TakeOff()
	w2.OnLowBattery()
	test.That(t, w2.State(), test.ShouldEqual, Land)
}
