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
	"context"
	"math"
	"testing"

	"github.com/ctessum/geom"

	"github.com/spatialmodel/eminv/edb"
)

// roadTestSnapshot has a 100 m road with 1000 vehicles per day driven by
// a single-member light-vehicle fleet with a free-flow emission factor
// of 1 kg per vehicle-meter.
func roadTestSnapshot() *edb.Snapshot {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.TrafficSituations[1] = &edb.TrafficSituation{ID: 1, Name: "urban"}
	s.RoadClasses[1] = &edb.RoadClass{ID: 1, Name: "street", TrafficSituation: 1}
	s.Vehicles[1] = &edb.Vehicle{ID: 1, Name: "car", MaxSpeed: 120}
	s.VehicleFuels[1] = &edb.VehicleFuel{ID: 1, Name: "gasoline"}
	s.VehicleEFs = []*edb.VehicleEF{{
		Vehicle: 1, Fuel: 1, Situation: 1, Substance: 1,
		ConditionFactors: edb.ConditionFactors{Freeflow: 1},
	}}
	s.Fleets[1] = &edb.Fleet{
		ID: 1, DefaultHeavyVehicleShare: 0.2,
		Members: []*edb.FleetMember{{
			Vehicle: 1, Fraction: 1,
			Fuels: []edb.FleetMemberFuel{{Fuel: 1, Fraction: 1}},
		}},
	}
	s.RoadSources = []*edb.RoadSource{{
		SourceData: edb.SourceData{ID: 1, Name: "main street"},
		Geom:       geom.LineString{{X: 0, Y: 0}, {X: 100, Y: 0}},
		AADT:       1000,
		Fleet:      1,
		RoadClass:  1,
		NoLanes:    2,
		Speed:      50,
		Width:      15,
	}}
	return s
}

func TestRoadCalculator(t *testing.T) {
	s := roadTestSnapshot()
	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}
	r := rows[0]

	// 80% light traffic at 1000 vehicles/day over 100 m.
	want := 0.8 * 1 * 1000 / 86400 * 100
	if v := r.Rate.Value(); math.Abs(v-want) > 1.e-12 {
		t.Errorf("emission: want %g, have %g", want, v)
	}
	if math.Abs(want-0.9259) > 1.e-4 {
		t.Errorf("expected value: want about 0.9259, have %g", want)
	}
	if r.HeavyShare != 0.2 {
		t.Errorf("heavy share: want 0.2, have %g", r.HeavyShare)
	}
	if r.DrivableWidth != 15 {
		t.Errorf("drivable width: want 15, have %g", r.DrivableWidth)
	}
	if calc.Gaps().Len() != 0 {
		t.Errorf("want 0 gaps, have %d", calc.Gaps().Len())
	}
}

func TestRoadCalculatorHeavyShareSplit(t *testing.T) {
	s := roadTestSnapshot()
	s.Vehicles[2] = &edb.Vehicle{ID: 2, Name: "truck", IsHeavy: true, MaxSpeed: 90}
	s.VehicleEFs = append(s.VehicleEFs, &edb.VehicleEF{
		Vehicle: 2, Fuel: 1, Situation: 1, Substance: 1,
		ConditionFactors: edb.ConditionFactors{Freeflow: 1},
	})
	s.Fleets[1].Members = append(s.Fleets[1].Members, &edb.FleetMember{
		Vehicle: 2, Fraction: 1,
		Fuels: []edb.FleetMemberFuel{{Fuel: 1, Fraction: 1}},
	})
	override := 0.5
	s.RoadSources[0].HeavyVehicleShare = &override

	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, have %d", len(rows))
	}

	// Light and heavy traffic split the total evenly and conserve it.
	total := 1. * 1000 / 86400 * 100
	if v := rows[0].Rate.Value() + rows[1].Rate.Value(); math.Abs(v-total) > 1.e-12 {
		t.Errorf("total emission: want %g, have %g", total, v)
	}
	if math.Abs(rows[0].Rate.Value()-rows[1].Rate.Value()) > 1.e-12 {
		t.Errorf("light and heavy emissions differ: %g vs %g",
			rows[0].Rate.Value(), rows[1].Rate.Value())
	}
}

func TestRoadCalculatorColdstart(t *testing.T) {
	s := roadTestSnapshot()
	s.VehicleEFs[0].Coldstart = 2
	s.Fleets[1].Members[0].ColdstartFraction = 0.5

	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}

	// The coldstart factor adds to the driving factor.
	want := 0.8 * 1 * 1000 / 86400 * 100 * (1 + 2*0.5)
	if v := rows[0].Rate.Value(); math.Abs(v-want) > 1.e-12 {
		t.Errorf("emission: want %g, have %g", want, v)
	}
}

func TestRoadCalculatorCongestion(t *testing.T) {
	s := roadTestSnapshot()
	s.VehicleEFs[0].ConditionFactors = edb.ConditionFactors{Freeflow: 1, Heavy: 3}
	p, err := edb.NewCongestionProfile(1, "", [][]float64{{1, 1, 2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s.CongestionProfiles[1] = p
	tv, err := edb.NewFlowTimevar(1, "", [][]float64{{10, 10, 5, 5}})
	if err != nil {
		t.Fatal(err)
	}
	s.FlowTimevars[1] = tv
	s.Fleets[1].Members[0].Timevar = 1
	s.RoadSources[0].CongestionProfile = 1

	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}

	// Two thirds free-flow, one third heavy conditions.
	want := 0.8 * 1 * 1000 / 86400 * 100 * (20./30.*1 + 10./30.*3)
	if v := rows[0].Rate.Value(); math.Abs(v-want) > 1.e-12 {
		t.Errorf("emission: want %g, have %g", want, v)
	}
}

func TestRoadCalculatorMinAADT(t *testing.T) {
	s := roadTestSnapshot()
	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{MinAADT: 1000})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// The threshold is exclusive: AADT must exceed it.
	if len(rows) != 0 {
		t.Errorf("want 0 rows, have %d", len(rows))
	}

	if _, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{MinAADT: -1}); err == nil {
		t.Error("negative MinAADT: expected an error")
	}
}

func TestRoadCalculatorGaps(t *testing.T) {
	s := roadTestSnapshot()
	s.RoadSources = append(s.RoadSources,
		&edb.RoadSource{
			SourceData: edb.SourceData{ID: 2},
			Geom:       geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			AADT:       500,
			Fleet:      42, // unknown fleet
			RoadClass:  1,
		},
		&edb.RoadSource{
			SourceData: edb.SourceData{ID: 3},
			Geom:       geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			AADT:       500,
			Fleet:      1,
			RoadClass:  9, // no composition rows
		})

	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := calc.Calculate(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("want 1 row, have %d", len(rows))
	}
	if calc.Gaps().Len() != 2 {
		t.Errorf("want 2 gaps, have %d", calc.Gaps().Len())
	}
}

func TestRoadCalculatorFilter(t *testing.T) {
	s := roadTestSnapshot()
	s.RoadSources[0].Tags = map[string]string{"municipality": "north"}

	calc, err := NewRoadCalculator(context.Background(), s, nil, nil, RoadConfig{})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := calc.Calculate(context.Background(), &SourceFilter{
		Tags: map[string]string{"municipality": "north"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("matching tag filter: want 1 row, have %d", len(rows))
	}

	rows, err = calc.Calculate(context.Background(), &SourceFilter{
		Tags: map[string]string{"municipality": "south"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("non-matching tag filter: want 0 rows, have %d", len(rows))
	}
}
