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

// Package carbsimutil wires the carbonation simulator to its command-line
// interface and configuration machinery.
package carbsimutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/brinemodel/carbsim"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to carbsim.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PitzerParamFile",
			usage: `
              PitzerParamFile is the path to a PHREEQC-format Pitzer
              parameter database. When empty, the built-in 25 °C
              Na/OH/HCO3/CO3 interaction coefficients are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), checkCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the trajectory table is written
              as comma-delimited text. When empty, the table is written to
              standard output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), sweepCmd.Flags()},
		},
		{
			name: "SpreadsheetFile",
			usage: `
              SpreadsheetFile optionally saves the trajectory table as an
              .xlsx spreadsheet in addition to the delimited output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies extra derived output columns as a
              map of column name to expression over the built-in row
              variables, for example {"pOH": "14 - pH"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Preset",
			usage: `
              Preset names a reactor preset from the preset file to use as
              the base system configuration.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "PresetFile",
			usage: `
              PresetFile is the path to a TOML file of named reactor
              presets.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.WaterML",
			usage: `
              System.WaterML is the liquid water volume in the reactor
              [mL].`,
			defaultVal: 2200.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.NaOHGrams",
			usage: `
              System.NaOHGrams is the sodium hydroxide charge dissolved in
              the water [g].`,
			defaultVal: 700.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.TempC",
			usage: `
              System.TempC is the operating temperature [°C].`,
			defaultVal: 25.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.HeadspaceL",
			usage: `
              System.HeadspaceL is the gas headspace volume [L].`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.PHighPsig",
			usage: `
              System.PHighPsig is the headspace charge pressure [psig].`,
			defaultVal: 750.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.PressureDropPsi",
			usage: `
              System.PressureDropPsi is the headspace pressure drop
              absorbed per cycle before recharging [psi].`,
			defaultVal: 75.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "System.HenryMolalPerAtm",
			usage: `
              System.HenryMolalPerAtm is the Henry's-law constant for CO2
              [mol/(kg water·atm)], used by the fixed-pCO2 solver.`,
			defaultVal: 0.034,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "TotalCO2Grams",
			usage: `
              TotalCO2Grams is the cumulative CO2 mass at which the
              absorbed-mode trajectory ends [g].`,
			defaultVal: 900.0,
			flagsets:   []*pflag.FlagSet{absorbedCmd.Flags()},
		},
		{
			name: "StepGrams",
			usage: `
              StepGrams is the CO2 mass added per absorbed-mode step [g].`,
			defaultVal: 25.0,
			flagsets:   []*pflag.FlagSet{absorbedCmd.Flags()},
		},
		{
			name: "Cycles",
			usage: `
              Cycles is the number of pressure cycles to simulate.`,
			defaultVal: 200,
			flagsets:   []*pflag.FlagSet{cyclesCmd.Flags()},
		},
		{
			name: "PlateauTail",
			usage: `
              PlateauTail is the number of trailing cycles summarized by
              the plateau statistics printed after a cycles run. Zero
              disables the summary.`,
			defaultVal: 25,
			flagsets:   []*pflag.FlagSet{cyclesCmd.Flags()},
		},
		{
			name: "Sweep.TotalCarbon",
			usage: `
              Sweep.TotalCarbon is the dissolved inorganic carbon held
              fixed across the pH sweep [mol/L].`,
			defaultVal: 1.0e-3,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Sweep.LowPH",
			usage: `
              Sweep.LowPH is the lower end of the sweep range.`,
			defaultVal: 2.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Sweep.HighPH",
			usage: `
              Sweep.HighPH is the upper end of the sweep range.`,
			defaultVal: 12.5,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Sweep.Steps",
			usage: `
              Sweep.Steps is the number of evenly spaced sweep points.`,
			defaultVal: 50,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Check.TotalCarbon",
			usage: `
              Check.TotalCarbon is the dissolved inorganic carbon at which
              the Pitzer and ideal-dilute engines are compared [mol/kg].`,
			defaultVal: 1.0e-3,
			flagsets:   []*pflag.FlagSet{checkCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CARBSIM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	runCmd.AddCommand(absorbedCmd)
	runCmd.AddCommand(cyclesCmd)
	Root.AddCommand(sweepCmd)
	Root.AddCommand(checkCmd)
	Root.AddCommand(modelsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("carbsim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "carbsim",
	Short: "A NaOH/CO2 brine carbonation simulator.",
	Long: `carbsim simulates the equilibrium speciation of concentrated sodium
hydroxide solutions absorbing carbon dioxide, using a Pitzer ion-interaction
activity model. Use the subcommands specified below to access the model
functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CARBSIM_var' where 'var' is
the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of carbsim.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("carbsim v%s\n", carbsim.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a carbonation trajectory.",
	Long: `run simulates a carbonation trajectory. Use the subcommands specified
below to choose how CO2 enters the liquid ('absorbed' or 'cycles').`,
	DisableAutoGenTag: true,
}

// absorbedCmd steps cumulative absorbed CO2 mass directly.
var absorbedCmd = &cobra.Command{
	Use:   "absorbed",
	Short: "Step the absorbed CO2 mass directly.",
	Long: `absorbed steps the cumulative dissolved CO2 mass from zero to
TotalCO2Grams in StepGrams increments, solving the equilibrium speciation
and pH after every step. All added CO2 is treated as entering the liquid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := systemConfig(Cfg)
		if err != nil {
			return err
		}
		p, err := loadParams(Cfg.GetString("PitzerParamFile"))
		if err != nil {
			return err
		}
		return RunAbsorbed(
			cfg,
			p,
			Cfg.GetFloat64("TotalCO2Grams"),
			Cfg.GetFloat64("StepGrams"),
			Cfg.GetString("OutputFile"),
			Cfg.GetString("SpreadsheetFile"),
			GetStringMapString("OutputVariables", Cfg),
		)
	},
	DisableAutoGenTag: true,
}

// cyclesCmd runs the pressure-cycling protocol.
var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Run the headspace pressure-cycling protocol.",
	Long: `cycles simulates repeated headspace charge/absorb/vent pressure
cycles. Each cycle transfers the CO2 corresponding to the configured
pressure drop into the aqueous carbon ledger, capped at the solution's
uptake capacity, and solves the equilibrium speciation and pH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := systemConfig(Cfg)
		if err != nil {
			return err
		}
		p, err := loadParams(Cfg.GetString("PitzerParamFile"))
		if err != nil {
			return err
		}
		return RunCycles(
			cfg,
			p,
			Cfg.GetInt("Cycles"),
			Cfg.GetInt("PlateauTail"),
			Cfg.GetString("OutputFile"),
			Cfg.GetString("SpreadsheetFile"),
			GetStringMapString("OutputVariables", Cfg),
		)
	},
	DisableAutoGenTag: true,
}

// sweepCmd evaluates the dilute speciation across a pH range.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep the ideal-dilute speciation across a pH range.",
	Long: `sweep evaluates the closed ideal-dilute carbonate speciation at a
fixed total carbon across a range of imposed pH values, producing the data
behind a speciation diagram.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSweep(
			Cfg.GetFloat64("Sweep.TotalCarbon"),
			Cfg.GetFloat64("Sweep.LowPH"),
			Cfg.GetFloat64("Sweep.HighPH"),
			Cfg.GetInt("Sweep.Steps"),
			Cfg.GetString("OutputFile"),
		)
	},
	DisableAutoGenTag: true,
}

// checkCmd compares the two speciation engines at low concentration.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Cross-check the Pitzer engine against the ideal-dilute limit.",
	Long: `check solves the same low-concentration carbon inventory with both
the Pitzer engine and the ideal-dilute solver and prints both pH values.
At infinite dilution the two should agree closely; a large difference
indicates a problem with the interaction parameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadParams(Cfg.GetString("PitzerParamFile"))
		if err != nil {
			return err
		}
		pitzerPH, dilutePH, err := carbsim.CrossCheckDilute(p, Cfg.GetFloat64("Check.TotalCarbon"))
		if err != nil {
			return err
		}
		cmd.Printf("pitzer pH: %.4f\ndilute pH: %.4f\ndifference: %+.4f\n",
			pitzerPH, dilutePH, pitzerPH-dilutePH)
		return nil
	},
	DisableAutoGenTag: true,
}

// modelsCmd lists the available speciation engines.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available speciation engines.",
	Long:  `models lists the registered speciation engines and their descriptions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadParams(Cfg.GetString("PitzerParamFile"))
		if err != nil {
			return err
		}
		for _, m := range carbsim.NewModelRegistry(p).List() {
			cmd.Printf("%-8s %s\n", m.Key(), m.Description())
		}
		return nil
	},
	DisableAutoGenTag: true,
}
