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

import "fmt"

// SpeciationModel is a named engine that solves a total-carbon/total-sodium
// point to an equilibrium state.
type SpeciationModel interface {
	// Key identifies the model for lookup.
	Key() string
	// Description is a one-line human-readable summary.
	Description() string
	// SolveCarbon solves for the given total inorganic carbon and total
	// sodium, both in mol/kg water.
	SolveCarbon(totalCarbon, totalSodium float64) (*Result, error)
}

// PitzerModel adapts Solver to the SpeciationModel interface.
type PitzerModel struct {
	*Solver
}

func (m PitzerModel) Key() string { return "pitzer" }

func (m PitzerModel) Description() string {
	return "ion-interaction (Pitzer/HMW) activity model for concentrated Na-carbonate brines"
}

func (m PitzerModel) SolveCarbon(totalCarbon, totalSodium float64) (*Result, error) {
	return m.SolveTotalCarbon(totalCarbon, totalSodium)
}

// DiluteModel adapts the ideal-dilute closed-carbonate solver to the
// SpeciationModel interface. It ignores ion interactions (all activity
// coefficients are 1) and is only meaningful at low ionic strength, where
// molality and molarity coincide.
type DiluteModel struct {
	Params *ParamSet
}

func (m DiluteModel) Key() string { return "dilute" }

func (m DiluteModel) Description() string {
	return "ideal-dilute closed carbonate system (no activity corrections); low-ionic-strength cross-check"
}

func (m DiluteModel) SolveCarbon(totalCarbon, totalSodium float64) (*Result, error) {
	d, err := SolveDilute(DiluteInputs{
		TotalCarbon: totalCarbon,
		Ka1:         m.Params.Ka1,
		Ka2:         m.Params.Ka2,
		Kw:          m.Params.Kw,
	})
	if err != nil {
		return nil, err
	}
	gamma := make(map[string]float64, len(ions))
	for _, sp := range ions {
		gamma[sp] = 1.0
	}
	return &Result{
		PH: d.PH,
		Molality: map[string]float64{
			SpeciesNa:   totalSodium,
			SpeciesH:    d.H,
			SpeciesOH:   d.OH,
			SpeciesHCO3: d.Species[DiluteSpeciesHCO3],
			SpeciesCO3:  d.Species[DiluteSpeciesCO3],
			SpeciesCO2:  d.Species[DiluteSpeciesH2CO3],
		},
		Gamma:         gamma,
		IonicStrength: d.IonicStrength,
		Converged:     true,
		Iterations:    0,
	}, nil
}

// ModelRegistry resolves speciation models by key. It replaces a
// process-wide mutable registry: construct it once at startup and pass it
// to whatever needs to look up a model.
type ModelRegistry struct {
	models     map[string]SpeciationModel
	order      []string
	defaultKey string
}

// NewModelRegistry returns a registry holding the Pitzer engine (the
// default) and the dilute cross-check, both backed by the given parameters.
func NewModelRegistry(p *ParamSet) *ModelRegistry {
	r := &ModelRegistry{models: make(map[string]SpeciationModel), defaultKey: "pitzer"}
	r.Register(PitzerModel{Solver: NewSolver(p)})
	r.Register(DiluteModel{Params: p})
	return r
}

// Register adds a model. Registration happens at startup; the registry is
// not mutated afterward.
func (r *ModelRegistry) Register(m SpeciationModel) {
	if _, ok := r.models[m.Key()]; !ok {
		r.order = append(r.order, m.Key())
	}
	r.models[m.Key()] = m
}

// Get resolves a model by key; the empty key resolves the default.
func (r *ModelRegistry) Get(key string) (SpeciationModel, error) {
	if key == "" {
		key = r.defaultKey
	}
	m, ok := r.models[key]
	if !ok {
		return nil, fmt.Errorf("carbsim: no speciation model registered under %q", key)
	}
	return m, nil
}

// List returns the registered models in registration order.
func (r *ModelRegistry) List() []SpeciationModel {
	out := make([]SpeciationModel, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.models[k])
	}
	return out
}

// CrossCheckDilute solves the same carbon inventory with both engines at
// zero sodium and low concentration, where the Pitzer model should
// reproduce the ideal-dilute limit. It returns both pH values; callers
// compare them to validate the activity model's infinite-dilution behavior.
func CrossCheckDilute(p *ParamSet, totalCarbon float64) (pitzerPH, dilutePH float64, err error) {
	s := &Solver{Params: p, Cap: NoCap}
	res, err := s.SolveTotalCarbon(totalCarbon, 0)
	if err != nil {
		return 0, 0, err
	}
	d, err := SolveDilute(DiluteInputs{
		TotalCarbon: totalCarbon,
		Ka1:         p.Ka1,
		Ka2:         p.Ka2,
		Kw:          p.Kw,
	})
	if err != nil {
		return 0, 0, err
	}
	return res.PH, d.PH, nil
}
