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
	"math"
)

// Iteration budgets. These are hard caps that keep solve time bounded and
// deterministic, not soft timeouts.
const (
	maxOuterIterations  = 60
	bracketScanPoints   = 240
	maxBisectIterations = 90

	// Inner root search range in log10 of the H+ molality.
	logHLow  = -18.0
	logHHigh = 0.0

	// Outer fixed-point convergence: maximum absolute change in ln(γ)
	// across all species.
	gammaTol = 1e-6

	bisectResidualTol = 1e-14
)

// BracketError is returned when the inner 1-D solver finds no sign change
// across the scanned log10[H+] range. This indicates bad bounds or a
// non-physical input, not a transient numerical issue, so it is never
// swallowed.
type BracketError struct {
	Lo, Hi float64
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("carbsim: no sign change found while bracketing root on log10[H+] in [%g, %g]", e.Lo, e.Hi)
}

// Result is a converged (or best-effort) equilibrium state.
type Result struct {
	PH            float64
	Molality      map[string]float64 // per-species molality, mol/kg water
	Gamma         map[string]float64 // per-species activity coefficients
	IonicStrength float64

	// Converged reports whether the activity-coefficient fixed point met
	// its tolerance within the iteration budget. Non-convergence is not an
	// error: the last iterate is returned and Converged is the diagnostic.
	Converged  bool
	Iterations int
}

// ChargeBalance returns the charge-balance residual
// (Na+ + H+) − (OH- + HCO3- + 2·CO3-2) of the result's molalities.
func (r *Result) ChargeBalance() float64 {
	m := r.Molality
	return (m[SpeciesNa] + m[SpeciesH]) - (m[SpeciesOH] + m[SpeciesHCO3] + 2.0*m[SpeciesCO3])
}

// CapPolicy limits the aqueous total-carbon inventory that the solver
// treats as reactive, given the cumulative carbon charged and the total
// sodium molality.
type CapPolicy func(totalCarbon, totalSodium float64) float64

// CapAtSodium caps reactive CT at the total sodium molality. Beyond 1:1
// bicarbonate stoichiometry, additional charged CO2 is assumed to remain in
// the gas phase or be kinetically unavailable rather than further lowering
// pH. This is an operational modeling choice for headspace-driven systems,
// not a physical law; swap the policy for systems that genuinely dissolve
// all charged CO2.
func CapAtSodium(totalCarbon, totalSodium float64) float64 {
	return math.Min(totalCarbon, totalSodium)
}

// NoCap passes the carbon inventory through unchanged.
func NoCap(totalCarbon, totalSodium float64) float64 {
	return totalCarbon
}

// Solver finds self-consistent pH and speciation for the Na–carbonate
// system using the Pitzer activity model.
type Solver struct {
	Params *ParamSet
	Cap    CapPolicy
}

// NewSolver returns a Solver with the sodium-capacity cap policy.
func NewSolver(p *ParamSet) *Solver {
	return &Solver{Params: p, Cap: CapAtSodium}
}

// bisectLog10 finds a root of f over [lo, hi] by scanning a fixed number of
// points for a sign change and then bisecting. The scan is required because
// the charge-balance residual is not reliably monotonic across the full
// range, and a Newton step can diverge near the extreme pH ends.
func bisectLog10(f func(float64) float64, lo, hi float64) (float64, error) {
	xs := make([]float64, bracketScanPoints)
	fs := make([]float64, bracketScanPoints)
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(bracketScanPoints-1)
		fs[i] = f(xs[i])
	}
	for i := 0; i < len(xs)-1; i++ {
		if fs[i] == 0 {
			return xs[i], nil
		}
		if fs[i]*fs[i+1] < 0 {
			a, b := xs[i], xs[i+1]
			fa := fs[i]
			for j := 0; j < maxBisectIterations; j++ {
				m := 0.5 * (a + b)
				fm := f(m)
				if math.Abs(fm) < bisectResidualTol {
					return m, nil
				}
				if fa*fm <= 0 {
					b = m
				} else {
					a, fa = m, fm
				}
			}
			return 0.5 * (a + b), nil
		}
	}
	return 0, &BracketError{Lo: lo, Hi: hi}
}

// carbonateSplit distributes total inorganic carbon ct across CO2(aq),
// HCO3- and CO3-2 at the given H+ molality, using activity-corrected
// dissociation ratios.
func carbonateSplit(ct, mH float64, gamma map[string]float64, p *ParamSet) (mCO2, mHCO3, mCO3 float64) {
	if ct <= 0 {
		return 0, 0, 0
	}
	r1 := p.Ka1 / (gamma[SpeciesH] * gamma[SpeciesHCO3] * mH)
	r23 := p.Ka2 * gamma[SpeciesHCO3] / (gamma[SpeciesH] * gamma[SpeciesCO3] * mH)
	r2 := r1 * r23
	mCO2 = ct / (1.0 + r1 + r2)
	return mCO2, r1 * mCO2, r2 * mCO2
}

// maxLnGammaChange reports the largest |ln(γb/γa)| across species.
func maxLnGammaChange(a, b map[string]float64) float64 {
	maxChange := 0.0
	for sp, g := range a {
		c := math.Abs(math.Log(b[sp] / g))
		if c > maxChange {
			maxChange = c
		}
	}
	return maxChange
}

// capCT applies the configured carbon-capacity policy.
func (s *Solver) capCT(totalCarbon, totalSodium float64) float64 {
	policy := s.Cap
	if policy == nil {
		policy = CapAtSodium
	}
	return policy(totalCarbon, totalSodium)
}

// solvePreEquivalence handles the CO2 + 2OH- → CO3-2 regime, where the
// composition is fixed by stoichiometry: OH- = Na − 2·CT, CO3-2 = CT, and
// H+ follows from water ionization at that single composition. Iterating
// the full nonlinear system here would be unnecessary and numerically
// fragile near the extreme-base limit.
func (s *Solver) solvePreEquivalence(ct, totalSodium float64) *Result {
	mOH := math.Max(0, totalSodium-2.0*ct)
	mCO3 := math.Max(0, ct)
	comp := map[string]float64{
		SpeciesNa:   totalSodium,
		SpeciesH:    1e-16,
		SpeciesOH:   mOH,
		SpeciesHCO3: 0,
		SpeciesCO3:  mCO3,
	}
	gamma, ionicStrength := ActivityCoefficients(comp, s.Params)
	aOH := 1e-30
	if mOH > 0 {
		aOH = gamma[SpeciesOH] * mOH
	}
	aH := s.Params.Kw / aOH
	comp[SpeciesH] = aH / math.Max(gamma[SpeciesH], 1e-30)
	comp[SpeciesCO2] = 0
	return &Result{
		PH:            -math.Log10(aH),
		Molality:      comp,
		Gamma:         gamma,
		IonicStrength: ionicStrength,
		Converged:     true,
		Iterations:    0,
	}
}

// initialBaseGuess is the strongly basic starting composition for the
// fixed-point loop.
func initialBaseGuess(totalSodium float64) map[string]float64 {
	return map[string]float64{
		SpeciesNa:   totalSodium,
		SpeciesH:    1e-16,
		SpeciesOH:   totalSodium,
		SpeciesHCO3: 0,
		SpeciesCO3:  0,
	}
}

// SolveTotalCarbon finds the equilibrium pH and speciation for the given
// total inorganic carbon and total sodium (both mol/kg water).
//
// While appreciable hydroxide remains (CT ≤ Na/2, the CO2 + 2OH- → CO3-2
// regime) the composition follows directly from stoichiometry and no
// root-finding is needed. Past that point the solver alternates an inner
// charge-balance root find at frozen activity coefficients with
// recomputation of the coefficients from the new composition, until the
// coefficients stop moving or the iteration budget runs out; in the latter
// case the last iterate is returned with Converged set to false.
func (s *Solver) SolveTotalCarbon(totalCarbon, totalSodium float64) (*Result, error) {
	ct := s.capCT(totalCarbon, totalSodium)

	if ct <= 0.5*totalSodium {
		return s.solvePreEquivalence(ct, totalSodium), nil
	}

	split := func(mH float64, gamma map[string]float64) (mOH, mHCO3, mCO3 float64) {
		aH := gamma[SpeciesH] * mH
		mOH = s.Params.Kw / (aH * gamma[SpeciesOH])
		_, mHCO3, mCO3 = carbonateSplit(ct, mH, gamma, s.Params)
		return mOH, mHCO3, mCO3
	}

	return s.iterate(totalSodium, split, func(res *Result, mH float64, gamma map[string]float64) {
		mCO2, _, _ := carbonateSplit(ct, mH, gamma, s.Params)
		res.Molality[SpeciesCO2] = mCO2
	})
}

// SolveFixedPCO2 finds the equilibrium pH and speciation with the dissolved
// CO2 molality pinned by Henry's law (mCO2 = KH·P) for the given headspace
// CO2 partial pressure in atmospheres, instead of deriving it from a total
// carbon split.
func (s *Solver) SolveFixedPCO2(pressureAtm, totalSodium, henryMolalPerAtm float64) (*Result, error) {
	mCO2 := henryMolalPerAtm * pressureAtm

	split := func(mH float64, gamma map[string]float64) (mOH, mHCO3, mCO3 float64) {
		aH := gamma[SpeciesH] * mH
		mOH = s.Params.Kw / (aH * gamma[SpeciesOH])
		mHCO3 = s.Params.Ka1 * mCO2 / (gamma[SpeciesH] * gamma[SpeciesHCO3] * mH)
		mCO3 = s.Params.Ka2 * gamma[SpeciesHCO3] * mHCO3 / (gamma[SpeciesH] * gamma[SpeciesCO3] * mH)
		return mOH, mHCO3, mCO3
	}

	return s.iterate(totalSodium, split, func(res *Result, mH float64, gamma map[string]float64) {
		res.Molality[SpeciesCO2] = mCO2
	})
}

// iterate runs the outer activity-coefficient fixed point around an inner
// charge-balance bisection. split computes the anion molalities at a fixed
// activity-coefficient snapshot; finish attaches the neutral CO2 entry to
// the converged result.
func (s *Solver) iterate(
	totalSodium float64,
	split func(mH float64, gamma map[string]float64) (mOH, mHCO3, mCO3 float64),
	finish func(res *Result, mH float64, gamma map[string]float64),
) (*Result, error) {
	comp := initialBaseGuess(totalSodium)
	gamma, ionicStrength := ActivityCoefficients(comp, s.Params)

	converged := false
	iterations := 0
	for iter := 0; iter < maxOuterIterations; iter++ {
		resid := func(log10mH float64) float64 {
			mH := math.Pow(10, log10mH)
			mOH, mHCO3, mCO3 := split(mH, gamma)
			return (totalSodium + mH) - (mOH + mHCO3 + 2.0*mCO3)
		}

		logmH, err := bisectLog10(resid, logHLow, logHHigh)
		if err != nil {
			return nil, err
		}
		mH := math.Pow(10, logmH)
		mOH, mHCO3, mCO3 := split(mH, gamma)

		compNew := map[string]float64{
			SpeciesNa:   totalSodium,
			SpeciesH:    mH,
			SpeciesOH:   mOH,
			SpeciesHCO3: mHCO3,
			SpeciesCO3:  mCO3,
		}
		gammaNew, iNew := ActivityCoefficients(compNew, s.Params)

		iterations = iter + 1
		change := maxLnGammaChange(gamma, gammaNew)
		comp, gamma, ionicStrength = compNew, gammaNew, iNew
		if change < gammaTol {
			converged = true
			break
		}
	}

	res := &Result{
		PH:            -math.Log10(gamma[SpeciesH] * comp[SpeciesH]),
		Molality:      comp,
		Gamma:         gamma,
		IonicStrength: ionicStrength,
		Converged:     converged,
		Iterations:    iterations,
	}
	finish(res, comp[SpeciesH], gamma)
	return res, nil
}
