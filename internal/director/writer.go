package director

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrVersion is returned for scenario files of another major format.
var ErrVersion = errors.New("unsupported scenario version")

// WriteScenario writes a scenario to a YAML file, creating its directory.
// The file is replaced atomically so FindLatestScenario never returns a
// partly written plan.
func WriteScenario(scenario *Scenario, path string) error {
	if scenario.Version == "" {
		scenario.Version = Version
	}
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".scenario-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadScenario reads a scenario from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if major(scenario.Version) != major(Version) {
		return nil, fmt.Errorf("%s: %w %q", path, ErrVersion, scenario.Version)
	}
	for _, tr := range scenario.Tracks {
		for i := 1; i < len(tr.Keyframes); i++ {
			if tr.Keyframes[i].Time < tr.Keyframes[i-1].Time {
				return nil, fmt.Errorf("%s: track %s: keyframe %d goes back in time", path, tr.ID, i)
			}
		}
	}

	return &scenario, nil
}

func major(v string) string {
	m, _, _ := strings.Cut(v, ".")
	return m
}
