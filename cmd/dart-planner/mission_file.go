package main

import (
	"os"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/mission"
)

// missionFile is the on-disk YAML shape for --mission: a flat list of
// waypoints, each an ENU/NED position plus an arrival tolerance in meters.
type missionFile struct {
	Waypoints []struct {
		X         float64 `yaml:"x"`
		Y         float64 `yaml:"y"`
		Z         float64 `yaml:"z"`
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"waypoints"`
}

// loadMissionFile reads and parses path into mission.Waypoint values. It
// does not validate against workspace bounds; mission.UploadMission does
// that.
func loadMissionFile(path string) ([]mission.Waypoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.Configuration, "cmd.mission_file", true, err)
	}
	var mf missionFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, apperr.New(apperr.Configuration, "cmd.mission_file", true, err)
	}
	out := make([]mission.Waypoint, len(mf.Waypoints))
	for i, w := range mf.Waypoints {
		out[i] = mission.Waypoint{Position: r3.Vector{X: w.X, Y: w.Y, Z: w.Z}, Tolerance: w.Tolerance}
	}
	return out, nil
}
