package source

import (
	"fmt"
	"io"
)

// Tract score columns.
const (
	ColScore = "score"
	ColArea  = "area"
)

// LoadTractScores reads a census_tract,score CSV of burden score
// percentiles. Tracts with an empty score are left out.
func LoadTractScores(path string, progress io.Writer) (map[string]float64, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadRecords(f, path, []string{ColCensusTract, ColScore}, progress)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(records))
	for i, rec := range records {
		tract := normalizeTract(rec.get(ColCensusTract))
		if tract == "" {
			continue
		}
		v, err := parseFloat(rec.get(ColScore))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", path, i+2, ColScore, err)
		}
		if !v.Valid {
			continue
		}
		scores[tract] = v.V
	}
	return scores, nil
}
