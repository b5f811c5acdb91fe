package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestLoadMissionFileParsesWaypoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.yaml")
	const body = `
waypoints:
  - x: 0
    y: 0
    z: 5
    tolerance: 1
  - x: 10
    y: 10
    z: 5
    tolerance: 2
`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	wps, err := loadMissionFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(wps), test.ShouldEqual, 2)
	test.That(t, wps[1].Position.X, test.ShouldEqual, 10.0)
	test.That(t, wps[0].Tolerance, test.ShouldEqual, 1.0)
}

func TestLoadMissionFileRejectsMissingFile(t *testing.T) {
	_, err := loadMissionFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadMissionFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	test.That(t, os.WriteFile(path, []byte("waypoints: [this is not a list of waypoints"), 0o600), test.ShouldBeNil)

	_, err := loadMissionFile(path)
	test.That(t, err, test.ShouldNotBeNil)
}
