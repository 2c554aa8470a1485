package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/stats"
	"github.com/ericdfournier/la100es/pkg/validation"
)

func TestPrintAreaTableTop(t *testing.T) {
	rows := []stats.AreaStats{
		{Area: "small", Parcels: 2},
		{Area: "large", Parcels: 40, MeanAsBuilt: parcel.Known(100), MeanExisting: parcel.Known(125), PctChange: parcel.Known(25)},
		{Area: "medium", Parcels: 9, Disadvantaged: true},
	}
	var buf bytes.Buffer
	printAreaTable(&buf, rows, 2)
	out := buf.String()

	if !strings.Contains(out, "Areas (2 of 3)") {
		t.Errorf("missing header:\n%s", out)
	}
	if strings.Contains(out, "small") {
		t.Errorf("top 2 should drop the smallest area:\n%s", out)
	}
	if strings.Index(out, "large") > strings.Index(out, "medium") {
		t.Errorf("areas not ordered by parcel count:\n%s", out)
	}
	if rows[0].Area != "small" {
		t.Error("printAreaTable reordered its input")
	}
}

func TestPrintValidationReport(t *testing.T) {
	r := validation.NewReport()
	r.AddError(validation.Result{Level: validation.LevelConfig, Message: "bad sector", Path: "sector", ActualValue: "x"})
	var buf bytes.Buffer
	printValidationReport(&buf, r)
	out := buf.String()
	for _, want := range []string{"ERRORS (1)", "-> sector = x", "Result: INVALID"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := formatFloat(parcel.Null, 1); got != "-" {
		t.Errorf("formatFloat(null) = %q", got)
	}
	if got := formatFloat(parcel.Known(12.345), 1); got != "12.3" {
		t.Errorf("formatFloat(12.345) = %q", got)
	}
	if got := truncate("Boyle Heights", 6); got != "Boyle~" {
		t.Errorf("truncate = %q", got)
	}
}
