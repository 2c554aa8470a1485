package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericdfournier/la100es/pkg/stats"
)

// boundaryFile is the YAML form of a boundary layer: area names mapped to
// their census tracts.
type boundaryFile struct {
	Areas map[string][]string `yaml:"areas"`
}

// LoadBoundaries reads a tract to area lookup from a census_tract,area CSV
// or a YAML file listing the tracts of each area.
func LoadBoundaries(path string, progress io.Writer) (stats.MapLayer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadBoundariesYAML(path)
	}

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadRecords(f, path, []string{ColCensusTract, ColArea}, progress)
	if err != nil {
		return nil, err
	}
	layer := make(stats.MapLayer, len(records))
	for i, rec := range records {
		tract := normalizeTract(rec.get(ColCensusTract))
		area := rec.get(ColArea)
		if tract == "" || area == "" {
			continue
		}
		if prev, ok := layer[tract]; ok && prev != area {
			return nil, fmt.Errorf("%s row %d: tract %s is in both %q and %q", path, i+2, tract, prev, area)
		}
		layer[tract] = area
	}
	return layer, nil
}

func loadBoundariesYAML(path string) (stats.MapLayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries file: %w", err)
	}
	var bf boundaryFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing boundaries YAML: %w", err)
	}
	layer := make(stats.MapLayer)
	for area, tracts := range bf.Areas {
		for _, t := range tracts {
			t = normalizeTract(strings.TrimSpace(t))
			if prev, ok := layer[t]; ok && prev != area {
				return nil, fmt.Errorf("%s: tract %s is in both %q and %q", path, t, prev, area)
			}
			layer[t] = area
		}
	}
	return layer, nil
}
