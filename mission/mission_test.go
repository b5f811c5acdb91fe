package mission

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

func testBounds() config.WorkspaceBounds {
	return config.Default().Planner.WorkspaceBounds
}

func TestUploadMissionAcceptsValidWaypoints(t *testing.T) {
	wps := []Waypoint{
		{Position: r3.Vector{X: 0, Y: 0, Z: 5}, Tolerance: 1},
		{Position: r3.Vector{X: 10, Y: 10, Z: 5}, Tolerance: 2},
	}
	m, err := UploadMission(wps, testBounds())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.N(), test.ShouldEqual, 2)
	test.That(t, m.ID, test.ShouldNotBeNil)
}

func TestUploadMissionRejectsEmptyList(t *testing.T) {
	_, err := UploadMission(nil, testBounds())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUploadMissionEnumeratesAllViolations(t *testing.T) {
	bounds := testBounds()
	wps := []Waypoint{
		{Position: r3.Vector{X: 1000, Y: 0, Z: 5}, Tolerance: 1},
		{Position: r3.Vector{X: 0, Y: 1000, Z: 5}, Tolerance: -1},
	}
	_, err := UploadMission(wps, bounds)
	test.That(t, err, test.ShouldNotBeNil)

	code, ok := apperr.CodeOf(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, code, test.ShouldEqual, apperr.ConstraintViolation)

	msg := err.Error()
	test.That(t, msg, test.ShouldContainSubstring, "waypoint 0")
	test.That(t, msg, test.ShouldContainSubstring, "waypoint 1")
}

func TestUploadMissionIsImmutableAfterAcceptance(t *testing.T) {
	wps := []Waypoint{{Position: r3.Vector{X: 0, Y: 0, Z: 5}, Tolerance: 1}}
	m, err := UploadMission(wps, testBounds())
	test.That(t, err, test.ShouldBeNil)

	wps[0].Tolerance = 99 // mutate the caller's slice
	test.That(t, m.Waypoints[0].Tolerance, test.ShouldEqual, 1.0)
}
