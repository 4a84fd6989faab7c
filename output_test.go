/*
Copyright © 2026 the carbsim authors.
This file is part of carbsim.

carbsim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

carbsim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with carbsim.  If not, see <http://www.gnu.org/licenses/>.
*/

package carbsim

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func testRows() []TrajectoryRow {
	return []TrajectoryRow{
		{
			Step:               0,
			CumulativeCO2Grams: 0,
			TotalCarbon:        0,
			PH:                 13.0,
			Molality: map[string]float64{
				SpeciesNa: 0.2, SpeciesH: 1e-13, SpeciesOH: 0.2,
				SpeciesHCO3: 0, SpeciesCO3: 0, SpeciesCO2: 0,
			},
		},
		{
			Step:               1,
			CumulativeCO2Grams: 25,
			TotalCarbon:        0.05,
			PH:                 11.0,
			Molality: map[string]float64{
				SpeciesNa: 0.2, SpeciesH: 1e-11, SpeciesOH: 0.1,
				SpeciesHCO3: 0, SpeciesCO3: 0.05, SpeciesCO2: 0,
			},
		},
	}
}

func TestOutputterCSV(t *testing.T) {
	o, err := NewOutputter(map[string]string{"pOH": "14 - pH"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := o.WriteCSV(&buf, ModeAbsorbed, testRows()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	wantHeader := "step,CO2_g,pH,m_OH,m_HCO3,m_CO3,m_CO2,CT_m,pOH"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	fields := strings.Split(lines[2], ",")
	if len(fields) != 9 {
		t.Fatalf("got %d fields, want 9", len(fields))
	}
	pOH, err := strconv.ParseFloat(fields[8], 64)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pOH-3.0) > 1e-9 {
		t.Errorf("pOH = %g, want 3", pOH)
	}
}

func TestOutputterCyclesColumns(t *testing.T) {
	o, err := NewOutputter(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(o.Header(ModeCycles), ",")
	want := "cycle,CO2_charged_g,P_low_psig,pH,m_OH,m_HCO3,m_CO3,m_CO2"
	if got != want {
		t.Errorf("header = %q, want %q", got, want)
	}
}

func TestOutputterDerivedFunctions(t *testing.T) {
	o, err := NewOutputter(map[string]string{"logH": "log10(m_H)"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	vals, err := o.values(ModeAbsorbed, testRows()[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := vals[len(vals)-1]; math.Abs(got-(-13)) > 1e-9 {
		t.Errorf("log10(m_H) = %g, want -13", got)
	}
}

func TestOutputterBadExpression(t *testing.T) {
	if _, err := NewOutputter(map[string]string{"x": "(("}, nil); err == nil {
		t.Error("expected a compile error")
	}
}

func TestWriteXLSX(t *testing.T) {
	o, err := NewOutputter(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	fname := filepath.Join(t.TempDir(), "trajectory.xlsx")
	if err := o.WriteXLSX(fname, ModeAbsorbed, testRows()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(fname)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("spreadsheet file is empty")
	}
}

func TestSummarizePlateau(t *testing.T) {
	var rows []TrajectoryRow
	for i := 0; i < 20; i++ {
		rows = append(rows, TrajectoryRow{Cycle: i + 1, PH: 8.2})
	}
	ps, err := SummarizePlateau(rows, 10)
	if err != nil {
		t.Fatal(err)
	}
	if ps.Rows != 10 {
		t.Errorf("rows = %d, want 10", ps.Rows)
	}
	if math.Abs(ps.MeanPH-8.2) > 1e-12 || ps.StdDevPH > 1e-9 {
		t.Errorf("mean = %g, stddev = %g", ps.MeanPH, ps.StdDevPH)
	}
	if math.Abs(ps.SlopePerStep) > 1e-9 {
		t.Errorf("slope = %g, want 0 for a flat plateau", ps.SlopePerStep)
	}

	// A linear ramp fits exactly.
	rows = rows[:0]
	for i := 0; i < 10; i++ {
		rows = append(rows, TrajectoryRow{Cycle: i + 1, PH: 10.0 - 0.1*float64(i)})
	}
	ps, err = SummarizePlateau(rows, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ps.SlopePerStep+0.1) > 1e-9 {
		t.Errorf("slope = %g, want -0.1", ps.SlopePerStep)
	}
	if math.Abs(ps.RSquared-1) > 1e-9 {
		t.Errorf("r² = %g, want 1", ps.RSquared)
	}
	if math.Abs(ps.MinPH-9.1) > 1e-9 || ps.MaxPH != 10.0 {
		t.Errorf("min/max = %g/%g", ps.MinPH, ps.MaxPH)
	}
}

func TestSummarizePlateauEmpty(t *testing.T) {
	if _, err := SummarizePlateau(nil, 5); err == nil {
		t.Error("expected an error for an empty trajectory")
	}
}
