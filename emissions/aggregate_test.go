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
	"math"
	"reflect"
	"testing"

	"github.com/spatialmodel/eminv/edb"
)

func TestTotals(t *testing.T) {
	rows := []SourceEmissionRow{
		{SourceType: edb.Point, SourceID: 1, Substance: 1, ActivityCode1: 10, Rate: Rate(1)},
		{SourceType: edb.Point, SourceID: 2, Substance: 1, ActivityCode1: 10, Rate: Rate(2)},
		{SourceType: edb.Area, SourceID: 3, Substance: 1, ActivityCode1: 11, Rate: Rate(4)},
		{SourceType: edb.Area, SourceID: 3, Substance: 2, ActivityCode1: 11, Rate: Rate(8)},
	}

	totals := NewTotals(GroupBy{})
	totals.AddSourceRows(rows)
	if totals.Len() != 2 {
		t.Fatalf("want 2 keys, have %d", totals.Len())
	}
	if v := totals.Sum(TotalKey{Substance: 1}).Value(); v != 7 {
		t.Errorf("substance 1: want 7, have %g", v)
	}
	if v := totals.Sum(TotalKey{Substance: 2}).Value(); v != 8 {
		t.Errorf("substance 2: want 8, have %g", v)
	}
}

func TestTotalsGroupByCode(t *testing.T) {
	rows := []SourceEmissionRow{
		{SourceID: 1, Substance: 1, ActivityCode1: 10, ActivityCode2: 20, Rate: Rate(1)},
		{SourceID: 2, Substance: 1, ActivityCode1: 10, ActivityCode2: 21, Rate: Rate(2)},
		{SourceID: 3, Substance: 1, ActivityCode1: 11, Rate: Rate(4)},
	}

	totals := NewTotals(GroupBy{AC1: true})
	totals.AddSourceRows(rows)

	wantKeys := []TotalKey{
		{Substance: 1, AC1: 10},
		{Substance: 1, AC1: 11},
	}
	if keys := totals.Keys(); !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("keys: want %v, have %v", wantKeys, keys)
	}
	if v := totals.Sum(TotalKey{Substance: 1, AC1: 10}).Value(); v != 3 {
		t.Errorf("code 10: want 3, have %g", v)
	}
	if v := totals.Sum(TotalKey{Substance: 1, AC1: 11}).Value(); v != 4 {
		t.Errorf("code 11: want 4, have %g", v)
	}

	// Grouping never changes the per-substance grand total.
	sub := totals.SubstanceTotals()
	if v := sub[1].Value(); v != 7 {
		t.Errorf("substance total: want 7, have %g", v)
	}
}

func TestTotalsRoadRows(t *testing.T) {
	totals := NewTotals(GroupBy{AC1: true})
	totals.AddSourceRows([]SourceEmissionRow{
		{SourceID: 1, Substance: 1, ActivityCode1: 10, Rate: Rate(1)},
	})
	totals.AddRoadRows([]RoadEmissionRow{
		{SourceID: 2, Vehicle: 1, Substance: 1, Rate: Rate(2)},
		{SourceID: 2, Vehicle: 2, Substance: 1, Rate: Rate(4)},
	})

	// Road rows carry no activity codes and collect under zero codes.
	if v := totals.Sum(TotalKey{Substance: 1}).Value(); v != 6 {
		t.Errorf("road total: want 6, have %g", v)
	}
	sub := totals.SubstanceTotals()
	if v := sub[1].Value(); math.Abs(v-7) > 1.e-12 {
		t.Errorf("substance total: want 7, have %g", v)
	}
}
