package parcel

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrInvalidSector          = errors.New("invalid sector")
	ErrUnrecognizedAmperage   = errors.New("unrecognized amperage")
	ErrInsufficientCohortData = errors.New("insufficient cohort data")
	ErrMissingField           = errors.New("missing field")
)

// InvalidSectorError reports a sector tag outside the closed sector set.
type InvalidSectorError struct {
	Sector string
}

func (e *InvalidSectorError) Error() string {
	return fmt.Sprintf("sector must be %q or %q, got %q", SingleFamily, MultiFamily, e.Sector)
}

func (e *InvalidSectorError) Is(target error) bool { return target == ErrInvalidSector }

// UnrecognizedAmperageError reports a rating that is not a member of the
// sector's amperage scale, or a rating with no next rung.
type UnrecognizedAmperageError struct {
	Sector Sector
	Amps   float64
	Reason string
}

func (e *UnrecognizedAmperageError) Error() string {
	return fmt.Sprintf("%s: %gA %s", e.Sector, e.Amps, e.Reason)
}

func (e *UnrecognizedAmperageError) Is(target error) bool { return target == ErrUnrecognizedAmperage }

// InsufficientCohortDataError reports a cohort with no permitted-upgrade
// observations to build an age distribution from.
type InsufficientCohortDataError struct {
	Cohort Cohort
}

func (e *InsufficientCohortDataError) Error() string {
	return fmt.Sprintf("cohort %s has no permitted upgrades with a known age", e.Cohort)
}

func (e *InsufficientCohortDataError) Is(target error) bool {
	return target == ErrInsufficientCohortData
}

// MissingFieldError reports a required input field absent from a dataset.
type MissingFieldError struct {
	Field  string
	Source string
}

func (e *MissingFieldError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("required field %q is missing", e.Field)
	}
	return fmt.Sprintf("%s: required field %q is missing", e.Source, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }
