/*
Copyright © 2024 the Eminv authors.
This file is part of Eminv.

Eminv is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Eminv is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Eminv.  If not, see <http://www.gnu.org/licenses/>.*/

package emissions

import (
	"github.com/spatialmodel/eminv/edb"
)

// An ActivityEF is a resolved (activity, substance, factor) row.
type ActivityEF struct {
	Activity  edb.ActivityID
	Substance edb.SubstanceID
	Factor    float64
}

// ResolveEmissionFactors returns the emission factors of the snapshot
// restricted to positive factors and substances in the given set, indexed
// by activity. It is a pure lookup; unknown substance ids in the set
// simply select nothing.
func ResolveEmissionFactors(s *edb.Snapshot, substances SubstanceSet) map[edb.ActivityID][]ActivityEF {
	out := make(map[edb.ActivityID][]ActivityEF)
	for _, ef := range s.EmissionFactors {
		if ef.Factor <= 0 {
			continue
		}
		if !substances.Contains(ef.Substance) {
			continue
		}
		out[ef.Activity] = append(out[ef.Activity], ActivityEF{
			Activity:  ef.Activity,
			Substance: ef.Substance,
			Factor:    ef.Factor,
		})
	}
	return out
}

type vehicleFuelKey struct {
	Vehicle edb.VehicleID
	Fuel    edb.VehicleFuelID
}

type situationSubstanceKey struct {
	Situation edb.TrafficSituationID
	Substance edb.SubstanceID
}

// resolveVehicleEFs indexes the snapshot's vehicle emission factors by
// (vehicle, fuel), restricted to substances in the given set, to
// vehicle/fuel combinations passing the activity-code filter, and
// excluding the synthetic traffic-work substance (whose factor is
// constant and synthesized separately). A combination with no rows is a
// referential gap handled by the caller, not an error.
func resolveVehicleEFs(s *edb.Snapshot, substances SubstanceSet, ac *ACFilter) map[vehicleFuelKey]map[situationSubstanceKey]*edb.VehicleEF {
	allowed := make(map[vehicleFuelKey]bool, len(s.VehicleFuelCombs))
	for _, c := range s.VehicleFuelCombs {
		allowed[vehicleFuelKey{c.Vehicle, c.Fuel}] = ac.Matches(c)
	}
	out := make(map[vehicleFuelKey]map[situationSubstanceKey]*edb.VehicleEF)
	for _, ef := range s.VehicleEFs {
		if ef.Substance == s.TrafficWork && s.TrafficWork != 0 {
			continue
		}
		if !substances.Contains(ef.Substance) {
			continue
		}
		key := vehicleFuelKey{ef.Vehicle, ef.Fuel}
		// Combinations not declared in the snapshot are treated as not
		// matching any activity-code filter, but pass when no filter is
		// given.
		if ok, declared := allowed[key]; declared && !ok {
			continue
		} else if !declared && ac != nil {
			continue
		}
		m, ok := out[key]
		if !ok {
			m = make(map[situationSubstanceKey]*edb.VehicleEF)
			out[key] = m
		}
		m[situationSubstanceKey{ef.Situation, ef.Substance}] = ef
	}
	return out
}
