package sector

import (
	"math"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

// Rule table revision. Bump when any band boundary or cell changes.
const TableVersion = "vintage5-2023"

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// Vintage bands shared by both sectors. Boundaries follow the adoption of
// municipal electrical code revisions.
var vintageBands = []Band{
	{"pre_1883", negInf, 1883},
	{"1883_1950", 1883, 1950},
	{"1950_1978", 1950, 1978},
	{"1978_2010", 1978, 2010},
	{"post_2010", 2010, posInf},
}

// Single-family size bands over building floor area in square feet.
var singleFamilySizeBands = []Band{
	{"lt_1k", 0, 1000},
	{"1k_2k", 1000, 2000},
	{"2k_3k", 2000, 3000},
	{"3k_4k", 3000, 4000},
	{"4k_5k", 4000, 5000},
	{"5k_8k", 5000, 8000},
	{"8k_10k", 8000, 10000},
	{"10k_20k", 10000, 20000},
	{"gte_20k", 20000, posInf},
}

var singleFamilyTable = [][]float64{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{30, 40, 60, 100, 125, 150, 200, 300, 400},
	{30, 60, 100, 125, 150, 200, 300, 400, 600},
	{100, 125, 150, 200, 225, 300, 400, 600, 800},
	{150, 200, 225, 300, 400, 600, 800, 1000, 1200},
}

// Multi-family ratings are per dwelling unit and keyed on vintage alone.
var multiFamilyTable = [][]float64{
	{0},
	{40},
	{60},
	{90},
	{150},
}

var (
	singleFamilyScale = Scale{0, 30, 40, 60, 100, 125, 150, 200, 225, 300, 400, 600, 800, 1000, 1200, 1400}
	multiFamilyScale  = Scale{0, 40, 60, 90, 100, 125, 150, 200}
)

var panelKeywords = []string{"solar", "pv", "photovoltaic", "ev", "charger", "ac", "a/c"}

func singleFamily() *Config {
	return &Config{
		Sector:         parcel.SingleFamily,
		Version:        TableVersion,
		SizeField:      SizeFieldBuildingSqft,
		Vintages:       vintageBands,
		Sizes:          singleFamilySizeBands,
		Table:          singleFamilyTable,
		Scale:          singleFamilyScale,
		Tokens:         []float64{100, 125, 150, 200, 225, 300, 400, 600},
		Keywords:       panelKeywords,
		UnknownAsBuilt: 100,
		OtherWorkFloor: 200,
	}
}

func multiFamily() *Config {
	return &Config{
		Sector:         parcel.MultiFamily,
		Version:        TableVersion,
		SizeField:      SizeFieldAvgUnitSqft,
		Vintages:       vintageBands,
		Table:          multiFamilyTable,
		Scale:          multiFamilyScale,
		Tokens:         []float64{100, 125, 150, 200},
		Keywords:       panelKeywords,
		UnknownAsBuilt: 100,
		OtherWorkFloor: 150,
	}
}
