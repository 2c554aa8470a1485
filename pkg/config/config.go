// Package config loads analysis definitions from la100es.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the analysis definition looked up in a project directory.
const FileName = "la100es.yaml"

// Defaults.
const (
	DefaultSeed         uint64  = 12345678
	DefaultDACThreshold float64 = 75
	DefaultCorrection           = "disadvantaged"
	DefaultDSNEnv               = "DATABASE_URL"
	DefaultLogLevel             = "info"
	DefaultPort                 = 8080
)

// Load reads an analysis definition from a YAML file and fills defaults.
func Load(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	a, err := Parse(data)
	if err != nil {
		return nil, err
	}
	a.Dir = filepath.Dir(path)
	return a, nil
}

// Parse decodes an analysis definition and fills defaults.
func Parse(data []byte) (*Analysis, error) {
	var a Analysis
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	a.ApplyDefaults()
	return &a, nil
}

// LoadProject loads the analysis definition from a project directory.
// It looks for la100es.yaml in the given directory.
func LoadProject(projectDir string) (*Analysis, error) {
	return Load(filepath.Join(projectDir, FileName))
}

// ApplyDefaults fills unset fields. A zero seed counts as unset.
func (a *Analysis) ApplyDefaults() {
	if a.Seed == 0 {
		a.Seed = DefaultSeed
	}
	if a.ReferenceYear.Mode == "" {
		a.ReferenceYear.Mode = ReferenceEarliestPermit
	}
	if a.DACThreshold == nil {
		t := DefaultDACThreshold
		a.DACThreshold = &t
	}
	if a.OddsRatioCorrection == "" {
		a.OddsRatioCorrection = DefaultCorrection
	}
	if a.AreaKey == "" {
		a.AreaKey = AreaCensusTract
	}
	if db := a.Inputs.Database; db != nil && db.DSNEnv == "" {
		db.DSNEnv = DefaultDSNEnv
	}
	if a.Log.Level == "" {
		a.Log.Level = DefaultLogLevel
	}
	if a.Server.Port == 0 {
		a.Server.Port = DefaultPort
	}
}

// Resolve returns an input path relative to the project directory.
// Absolute and empty paths are returned unchanged.
func (a *Analysis) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.Dir, path)
}

// Threshold returns the DAC score threshold. An explicit 0 is returned as
// is so validation can reject it.
func (a *Analysis) Threshold() float64 {
	if a.DACThreshold == nil {
		return DefaultDACThreshold
	}
	return *a.DACThreshold
}

// FixedReferenceYear returns the configured reference year, or 0 when ages
// are measured at the earliest permit year.
func (a *Analysis) FixedReferenceYear() int {
	if a.ReferenceYear.Mode == ReferenceFixed {
		return a.ReferenceYear.Year
	}
	return 0
}
