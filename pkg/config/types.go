package config

// Analysis is the top-level definition of one panel inference run.
type Analysis struct {
	Name                string        `yaml:"name" json:"name"`
	Sector              string        `yaml:"sector" json:"sector"`
	Seed                uint64        `yaml:"seed" json:"seed"`
	ReferenceYear       ReferenceYear `yaml:"reference_year" json:"reference_year"`
	DACThreshold        *float64      `yaml:"dac_threshold,omitempty" json:"dac_threshold,omitempty"`
	OddsRatioCorrection string        `yaml:"odds_ratio_correction" json:"odds_ratio_correction"`
	AreaKey             string        `yaml:"area_key" json:"area_key"`
	Inputs              Inputs        `yaml:"inputs" json:"inputs"`
	Log                 Log           `yaml:"log" json:"log"`
	Server              Server        `yaml:"server" json:"server"`

	// Dir is the project directory relative input paths resolve against.
	Dir string `yaml:"-" json:"-"`
}

// Reference year modes.
const (
	ReferenceEarliestPermit = "earliest_permit"
	ReferenceFixed          = "fixed"
)

// ReferenceYear selects the year parcel ages are measured at.
type ReferenceYear struct {
	Mode string `yaml:"mode" json:"mode"`
	Year int    `yaml:"year,omitempty" json:"year,omitempty"`
}

// Area keys.
const (
	AreaCensusTract = "census_tract"
	AreaBoundaries  = "boundaries"
)

type Inputs struct {
	// Parcels is a CSV with one row per parcel and permit pair.
	Parcels     string    `yaml:"parcels" json:"parcels"`
	TractScores string    `yaml:"tract_scores" json:"tract_scores"`
	Boundaries  string    `yaml:"boundaries" json:"boundaries"`
	Database    *Database `yaml:"database,omitempty" json:"database,omitempty"`
}

// Database reads parcels from Postgres instead of a CSV.
type Database struct {
	// DSNEnv names the environment variable holding the connection string.
	DSNEnv string `yaml:"dsn_env" json:"dsn_env"`
	// EnvFile is loaded before the DSN is read; missing files are ignored.
	EnvFile string `yaml:"env_file" json:"env_file"`
	Query   string `yaml:"query" json:"query"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

type Server struct {
	Port int `yaml:"port" json:"port"`
}
