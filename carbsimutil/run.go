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

package carbsimutil

import (
	"fmt"
	"io"
	"os"

	"github.com/brinemodel/carbsim"
	log "github.com/sirupsen/logrus"
)

// outputWriter opens the delimited-text destination; the empty path means
// standard output.
func outputWriter(outputFile string) (io.Writer, func() error, error) {
	if outputFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(os.ExpandEnv(outputFile))
	if err != nil {
		return nil, nil, fmt.Errorf("carbsim: creating output file: %v", err)
	}
	return f, f.Close, nil
}

// writeTrajectory renders rows to the configured destinations.
func writeTrajectory(mode carbsim.Mode, rows []carbsim.TrajectoryRow, outputFile, spreadsheetFile string, outputVars map[string]string) error {
	o, err := carbsim.NewOutputter(outputVars, nil)
	if err != nil {
		return err
	}
	w, closer, err := outputWriter(outputFile)
	if err != nil {
		return err
	}
	if err := o.WriteCSV(w, mode, rows); err != nil {
		closer()
		return err
	}
	if err := closer(); err != nil {
		return err
	}
	if spreadsheetFile != "" {
		if err := o.WriteXLSX(os.ExpandEnv(spreadsheetFile), mode, rows); err != nil {
			return err
		}
	}
	return nil
}

// RunAbsorbed simulates the absorbed-mass trajectory and writes the result.
func RunAbsorbed(cfg carbsim.SystemConfig, p *carbsim.ParamSet, totalGrams, stepGrams float64, outputFile, spreadsheetFile string, outputVars map[string]string) error {
	log.WithFields(log.Fields{
		"naoh_g":   cfg.NaOHGrams,
		"water_ml": cfg.WaterMilliliters,
		"total_g":  totalGrams,
		"step_g":   stepGrams,
	}).Info("simulating absorbed CO2 trajectory")

	s := carbsim.NewSolver(p)
	rows, err := s.SimulateAbsorbed(cfg, totalGrams, stepGrams)
	if err != nil {
		return err
	}
	logUnconverged(rows)
	return writeTrajectory(carbsim.ModeAbsorbed, rows, outputFile, spreadsheetFile, outputVars)
}

// RunCycles simulates the pressure-cycling trajectory, writes the result,
// and logs plateau statistics over the trailing cycles.
func RunCycles(cfg carbsim.SystemConfig, p *carbsim.ParamSet, cycles, plateauTail int, outputFile, spreadsheetFile string, outputVars map[string]string) error {
	dn, err := cfg.MolesPerCycle()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"cycles":          cycles,
		"mol_per_cycle":   dn,
		"p_high_psig":     cfg.HighPressurePsig,
		"pressure_drop":   cfg.PressureDropPsi,
		"sodium_molality": cfg.SodiumMolality(),
	}).Info("simulating pressure-cycling trajectory")

	s := carbsim.NewSolver(p)
	rows, err := s.SimulateCycles(cfg, cycles)
	if err != nil {
		return err
	}
	logUnconverged(rows)

	if plateauTail > 0 && len(rows) > 0 {
		ps, err := carbsim.SummarizePlateau(rows, plateauTail)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"rows":           ps.Rows,
			"mean_pH":        ps.MeanPH,
			"stddev_pH":      ps.StdDevPH,
			"slope_per_step": ps.SlopePerStep,
		}).Info("trailing-cycle pH plateau")
	}
	return writeTrajectory(carbsim.ModeCycles, rows, outputFile, spreadsheetFile, outputVars)
}

// RunSweep evaluates the ideal-dilute speciation across a pH range and
// writes one line per point.
func RunSweep(totalCarbon, lowPH, highPH float64, steps int, outputFile string) error {
	if highPH <= lowPH {
		return fmt.Errorf("carbsim: sweep range [%g, %g] is empty", lowPH, highPH)
	}
	rows := carbsim.SweepDilutePH(carbsim.DiluteInputs{TotalCarbon: totalCarbon}, lowPH, highPH, steps)

	w, closer, err := outputWriter(outputFile)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := fmt.Fprintln(w, "pH,H2CO3,HCO3,CO3,a0,a1,a2"); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintf(w, "%.4f,%.6g,%.6g,%.6g,%.6g,%.6g,%.6g\n",
			row.PH,
			row.Species[carbsim.DiluteSpeciesH2CO3],
			row.Species[carbsim.DiluteSpeciesHCO3],
			row.Species[carbsim.DiluteSpeciesCO3],
			row.Alpha["a0"], row.Alpha["a1"], row.Alpha["a2"])
		if err != nil {
			return err
		}
	}
	return nil
}

// logUnconverged warns about any rows whose equilibrium solve hit the
// iteration ceiling.
func logUnconverged(rows []carbsim.TrajectoryRow) {
	for _, row := range rows {
		if !row.Converged {
			log.WithFields(log.Fields{
				"step":  row.Step,
				"cycle": row.Cycle,
				"CT_m":  row.TotalCarbon,
				"pH":    row.PH,
			}).Warn("activity-coefficient iteration did not converge")
		}
	}
}
