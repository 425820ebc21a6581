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
	"testing"

	"github.com/ctessum/geom"

	"github.com/spatialmodel/eminv/edb"
)

func TestAreaSourceEmissionsDirect(t *testing.T) {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.AreaSources = []*edb.AreaSource{{
		SourceData: edb.SourceData{ID: 1, Name: "landfill"},
		Geom:       geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
		Emissions:  []edb.SourceSubstanceEmission{{Substance: 1, Value: 10}},
	}}

	rows := AreaSourceEmissions(s, nil, nil, nil)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}
	if v := rows[0].Rate.Value(); v != 10 {
		t.Errorf("emission: want 10, have %g", v)
	}
	if rows[0].SourceType != edb.Area {
		t.Errorf("source type: want %q, have %q", edb.Area, rows[0].SourceType)
	}
}

func TestPointSourceEmissionsActivity(t *testing.T) {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.Substances[2] = &edb.Substance{ID: 2, Slug: "CO"}
	s.Activities[1] = &edb.Activity{ID: 1, Name: "combustion", Unit: "MWh/s"}
	s.EmissionFactors = []*edb.EmissionFactor{
		{Activity: 1, Substance: 1, Factor: 2},
		{Activity: 1, Substance: 2, Factor: -1}, // never contributes
	}
	s.PointSources = []*edb.PointSource{{
		SourceData: edb.SourceData{ID: 1, Name: "plant", ActivityCode1: 5},
		Geom:       geom.Point{X: 10, Y: 20},
		Activities: []edb.SourceActivity{{Activity: 1, Rate: 5}},
	}}

	rows := PointSourceEmissions(s, nil, nil, nil)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}
	r := rows[0]
	if r.Substance != 1 {
		t.Errorf("substance: want 1, have %d", r.Substance)
	}
	if v := r.Rate.Value(); v != 10 {
		t.Errorf("emission: want 5×2 = 10, have %g", v)
	}
	if r.ActivityCode1 != 5 {
		t.Errorf("activity code 1: want 5, have %d", r.ActivityCode1)
	}
}

func TestSourceEmissionsCombined(t *testing.T) {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.Activities[1] = &edb.Activity{ID: 1, Name: "combustion"}
	s.EmissionFactors = []*edb.EmissionFactor{{Activity: 1, Substance: 1, Factor: 2}}
	s.PointSources = []*edb.PointSource{{
		SourceData: edb.SourceData{ID: 1},
		Geom:       geom.Point{X: 0, Y: 0},
		Emissions:  []edb.SourceSubstanceEmission{{Substance: 1, Value: 3}},
		Activities: []edb.SourceActivity{{Activity: 1, Rate: 5}},
	}}

	rows := PointSourceEmissions(s, nil, nil, nil)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}
	// Direct emissions and activity emissions add up per substance.
	if v := rows[0].Rate.Value(); v != 13 {
		t.Errorf("emission: want 3 + 5×2 = 13, have %g", v)
	}
}

func TestSourceEmissionsMissingFactorGap(t *testing.T) {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.Activities[1] = &edb.Activity{ID: 1, Name: "combustion"}
	s.PointSources = []*edb.PointSource{{
		SourceData: edb.SourceData{ID: 1},
		Geom:       geom.Point{X: 0, Y: 0},
		Activities: []edb.SourceActivity{{Activity: 1, Rate: 5}},
	}}

	gaps := new(GapReport)
	rows := PointSourceEmissions(s, nil, nil, gaps)
	if len(rows) != 0 {
		t.Errorf("want 0 rows, have %d", len(rows))
	}
	if gaps.Len() != 1 {
		t.Errorf("want 1 gap, have %d", gaps.Len())
	}
}

func TestSourceEmissionsSubstanceSelection(t *testing.T) {
	s := edb.NewSnapshot()
	s.Substances[1] = &edb.Substance{ID: 1, Slug: "NOx"}
	s.Substances[2] = &edb.Substance{ID: 2, Slug: "CO"}
	s.AreaSources = []*edb.AreaSource{{
		SourceData: edb.SourceData{ID: 1},
		Geom:       geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
		Emissions: []edb.SourceSubstanceEmission{
			{Substance: 1, Value: 10},
			{Substance: 2, Value: 20},
		},
	}}

	rows := AreaSourceEmissions(s, NewSubstanceSet(2), nil, nil)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(rows))
	}
	if rows[0].Substance != 2 {
		t.Errorf("substance: want 2, have %d", rows[0].Substance)
	}
}
