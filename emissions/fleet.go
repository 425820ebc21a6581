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
	"fmt"
	"sort"

	"github.com/spatialmodel/eminv/edb"
)

// A FleetRow is one fleet member expanded against one road class and one
// substance, with fuel-mix-aggregated emission factors. FleetRows are the
// per-fleet input of the road-segment calculation.
type FleetRow struct {
	RoadClass edb.RoadClassID

	Vehicle  edb.VehicleID
	IsHeavy  bool
	MaxSpeed float64

	TrafficTimevar   edb.TimevarID
	ColdstartTimevar edb.TimevarID

	Fraction          float64
	ColdstartFraction float64

	DefaultHeavyShare float64

	Substance edb.SubstanceID

	// EF holds the fuel-fraction-weighted emission factors per driving
	// condition, in kg per vehicle-meter.
	EF edb.ConditionFactors

	ColdstartEF float64
}

// fleetAggKey groups fuel-weighted factors by fleet member, traffic
// situation and substance.
type fleetAggKey struct {
	Member    int // index into Fleet.Members
	Situation edb.TrafficSituationID
	Substance edb.SubstanceID
}

// ResolveFleetComposition expands a fleet into FleetRows: for every fleet
// member and fuel, the matching vehicle emission factors are weighted by
// the fuel fraction and summed per (member, traffic situation,
// substance); one synthetic traffic-work row per (member, traffic
// situation) is added with unit emission factors and zero coldstart; the
// union is joined to road classes on traffic situation.
//
// A member fuel with no matching vehicle emission factor contributes
// nothing and is recorded as a gap.
func ResolveFleetComposition(s *edb.Snapshot, fleetID edb.FleetID, substances SubstanceSet, ac *ACFilter, gaps *GapReport) ([]FleetRow, error) {
	fleet, ok := s.Fleets[fleetID]
	if !ok {
		return nil, fmt.Errorf("emissions.ResolveFleetComposition: unknown fleet %d", fleetID)
	}
	vehEFs := resolveVehicleEFs(s, substances, ac)

	agg := make(map[fleetAggKey]*edb.VehicleEF)
	for mi, m := range fleet.Members {
		for _, mf := range m.Fuels {
			efs, ok := vehEFs[vehicleFuelKey{m.Vehicle, mf.Fuel}]
			if !ok || len(efs) == 0 {
				if gaps != nil {
					gaps.add(GapVehicleEF,
						fmt.Sprintf("fleet %d vehicle %d", fleetID, m.Vehicle),
						"no emission factors for fuel %d", mf.Fuel)
				}
				continue
			}
			for k, ef := range efs {
				key := fleetAggKey{Member: mi, Situation: k.Situation, Substance: k.Substance}
				a, ok := agg[key]
				if !ok {
					a = &edb.VehicleEF{
						Vehicle:   m.Vehicle,
						Situation: k.Situation,
						Substance: k.Substance,
					}
					agg[key] = a
				}
				a.Freeflow += mf.Fraction * ef.Freeflow
				a.Heavy += mf.Fraction * ef.Heavy
				a.Saturated += mf.Fraction * ef.Saturated
				a.Stopngo += mf.Fraction * ef.Stopngo
				a.Coldstart += mf.Fraction * ef.Coldstart
			}
		}
	}

	// Synthesize traffic-work rows so that vehicle-distance is reported
	// uniformly alongside pollutants, for every traffic situation.
	if s.TrafficWork != 0 && substances.Contains(s.TrafficWork) {
		for mi := range fleet.Members {
			for tsID := range s.TrafficSituations {
				key := fleetAggKey{Member: mi, Situation: tsID, Substance: s.TrafficWork}
				agg[key] = &edb.VehicleEF{
					Vehicle:   fleet.Members[mi].Vehicle,
					Situation: tsID,
					Substance: s.TrafficWork,
					ConditionFactors: edb.ConditionFactors{
						Freeflow: 1, Heavy: 1, Saturated: 1, Stopngo: 1,
					},
					Coldstart: 0,
				}
			}
		}
	}

	var rows []FleetRow
	for _, rc := range s.RoadClasses {
		for key, a := range agg {
			if a.Situation != rc.TrafficSituation {
				continue
			}
			m := fleet.Members[key.Member]
			veh, ok := s.Vehicles[m.Vehicle]
			if !ok {
				return nil, fmt.Errorf("emissions.ResolveFleetComposition: fleet %d references unknown vehicle %d", fleetID, m.Vehicle)
			}
			rows = append(rows, FleetRow{
				RoadClass:         rc.ID,
				Vehicle:           veh.ID,
				IsHeavy:           veh.IsHeavy,
				MaxSpeed:          veh.MaxSpeed,
				TrafficTimevar:    m.Timevar,
				ColdstartTimevar:  m.ColdstartTimevar,
				Fraction:          m.Fraction,
				ColdstartFraction: m.ColdstartFraction,
				DefaultHeavyShare: fleet.DefaultHeavyVehicleShare,
				Substance:         key.Substance,
				EF:                a.ConditionFactors,
				ColdstartEF:       a.Coldstart,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.RoadClass != b.RoadClass {
			return a.RoadClass < b.RoadClass
		}
		if a.Vehicle != b.Vehicle {
			return a.Vehicle < b.Vehicle
		}
		return a.Substance < b.Substance
	})
	return rows, nil
}
