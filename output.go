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
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/Knetic/govaluate"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
)

// Mode selects which trajectory driver produced a set of rows, which in
// turn selects the output column layout.
type Mode string

const (
	ModeAbsorbed Mode = "absorbed"
	ModeCycles   Mode = "cycles"
)

// baseColumns lists the fixed output columns per mode.
var baseColumns = map[Mode][]string{
	ModeAbsorbed: {"step", "CO2_g", "pH", "m_OH", "m_HCO3", "m_CO3", "m_CO2", "CT_m"},
	ModeCycles:   {"cycle", "CO2_charged_g", "P_low_psig", "pH", "m_OH", "m_HCO3", "m_CO3", "m_CO2"},
}

// Outputter renders trajectory rows as delimited text or a spreadsheet.
//
// derivedVariables maps extra column names to expressions over the built-in
// row variables (step, cycle, CO2_g, CO2_charged_g, P_low_psig, pH, CT_m,
// ionic_strength, iterations, and the m_* species molalities). Expressions
// may use the default functions exp(x), log10(x) and sqrt(x) plus any
// functions supplied by the caller.
type Outputter struct {
	derived   map[string]*govaluate.EvaluableExpression
	order     []string
	functions map[string]govaluate.ExpressionFunction
}

// NewOutputter compiles the derived-variable expressions and returns an
// Outputter. Derived columns appear after the base columns, in name order.
func NewOutputter(derivedVariables map[string]string, functions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	oneArg := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("carbsim: got %d arguments for function '%s', but needs 1", len(args), name)
			}
			v, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("carbsim: function '%s' needs a numeric argument", name)
			}
			return f(v), nil
		}
	}
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":   oneArg("exp", math.Exp),
		"log10": oneArg("log10", math.Log10),
		"sqrt":  oneArg("sqrt", math.Sqrt),
	}
	for name, f := range functions {
		funcs[name] = f
	}

	o := &Outputter{
		derived:   make(map[string]*govaluate.EvaluableExpression, len(derivedVariables)),
		functions: funcs,
	}
	for name, exprText := range derivedVariables {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprText, funcs)
		if err != nil {
			return nil, fmt.Errorf("carbsim: derived output variable %q: %v", name, err)
		}
		o.derived[name] = expr
		o.order = append(o.order, name)
	}
	sort.Strings(o.order)
	return o, nil
}

// rowVariables exposes a trajectory row to the expression evaluator.
func rowVariables(row TrajectoryRow) map[string]interface{} {
	return map[string]interface{}{
		"step":           float64(row.Step),
		"cycle":          float64(row.Cycle),
		"CO2_g":          row.CumulativeCO2Grams,
		"CO2_charged_g":  row.CumulativeCO2Grams,
		"P_low_psig":     row.LowPressurePsig,
		"pH":             row.PH,
		"CT_m":           row.TotalCarbon,
		"ionic_strength": row.IonicStrength,
		"iterations":     float64(row.Iterations),
		"m_Na":           row.Molality[SpeciesNa],
		"m_H":            row.Molality[SpeciesH],
		"m_OH":           row.Molality[SpeciesOH],
		"m_HCO3":         row.Molality[SpeciesHCO3],
		"m_CO3":          row.Molality[SpeciesCO3],
		"m_CO2":          row.Molality[SpeciesCO2],
	}
}

// values evaluates one row into its output column values.
func (o *Outputter) values(mode Mode, row TrajectoryRow) ([]float64, error) {
	vars := rowVariables(row)
	cols := baseColumns[mode]
	out := make([]float64, 0, len(cols)+len(o.order))
	for _, c := range cols {
		out = append(out, vars[c].(float64))
	}
	for _, name := range o.order {
		v, err := o.derived[name].Evaluate(vars)
		if err != nil {
			return nil, fmt.Errorf("carbsim: evaluating output variable %q: %v", name, err)
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("carbsim: output variable %q is not numeric", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// Header returns the output column names for the given mode.
func (o *Outputter) Header(mode Mode) []string {
	cols := append([]string{}, baseColumns[mode]...)
	return append(cols, o.order...)
}

// WriteCSV renders the trajectory as comma-delimited text.
func (o *Outputter) WriteCSV(w io.Writer, mode Mode, rows []TrajectoryRow) error {
	header := o.Header(mode)
	for i, h := range header {
		if i > 0 {
			if _, err := fmt.Fprint(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, h); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, row := range rows {
		vals, err := o.values(mode, row)
		if err != nil {
			return err
		}
		for i, v := range vals {
			if i > 0 {
				if _, err := fmt.Fprint(w, ","); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%.6g", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX saves the trajectory as a single-sheet spreadsheet.
func (o *Outputter) WriteXLSX(fileName string, mode Mode, rows []TrajectoryRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("trajectory")
	if err != nil {
		return fmt.Errorf("carbsim: creating spreadsheet: %v", err)
	}
	hr := sheet.AddRow()
	for _, h := range o.Header(mode) {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		vals, err := o.values(mode, row)
		if err != nil {
			return err
		}
		xr := sheet.AddRow()
		for _, v := range vals {
			xr.AddCell().SetFloat(v)
		}
	}
	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("carbsim: saving spreadsheet: %v", err)
	}
	return nil
}

// PlateauStats summarizes the trailing portion of a trajectory, where the
// pH is expected to have flattened into the bicarbonate-buffered regime.
type PlateauStats struct {
	Rows                           int
	MeanPH, StdDevPH, MinPH, MaxPH float64

	// SlopePerStep and RSquared come from a linear fit of pH against the
	// step/cycle index; a near-zero slope confirms the plateau.
	SlopePerStep float64
	RSquared     float64
}

// SummarizePlateau computes summary statistics over the last tail rows.
func SummarizePlateau(rows []TrajectoryRow, tail int) (PlateauStats, error) {
	if len(rows) == 0 {
		return PlateauStats{}, fmt.Errorf("carbsim: no trajectory rows to summarize")
	}
	if tail <= 0 || tail > len(rows) {
		tail = len(rows)
	}
	window := rows[len(rows)-tail:]

	var d stats.Stats
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, row := range window {
		d.Update(row.PH)
		xs[i] = float64(i)
		ys[i] = row.PH
	}

	ps := PlateauStats{
		Rows:   len(window),
		MeanPH: d.Mean(),
		MinPH:  floats.Min(ys),
		MaxPH:  floats.Max(ys),
	}
	if len(window) > 1 {
		ps.StdDevPH = d.SampleStandardDeviation()
		ps.SlopePerStep, _, ps.RSquared, _, _, _ = stats.LinearRegression(xs, ys)
	}
	return ps, nil
}
