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
	"sort"

	"github.com/ctessum/unit"

	"github.com/spatialmodel/eminv/edb"
)

// GroupBy selects which activity-code levels partition the aggregated
// totals. The zero value groups everything under a single key per
// substance.
type GroupBy struct {
	AC1, AC2, AC3 bool
}

// A TotalKey identifies one aggregated total: a substance plus the
// activity codes retained by the grouping. Code levels not grouped on
// are zero.
type TotalKey struct {
	Substance edb.SubstanceID
	AC1       edb.ActivityCodeID
	AC2       edb.ActivityCodeID
	AC3       edb.ActivityCodeID
}

// Totals holds aggregated emission rates in kg/s, keyed by substance
// and grouped activity codes.
type Totals struct {
	groupBy GroupBy
	sums    map[TotalKey]*unit.Unit
}

// NewTotals creates an empty accumulation with the given grouping.
func NewTotals(groupBy GroupBy) *Totals {
	return &Totals{groupBy: groupBy, sums: make(map[TotalKey]*unit.Unit)}
}

func (t *Totals) key(sub edb.SubstanceID, ac1, ac2, ac3 edb.ActivityCodeID) TotalKey {
	k := TotalKey{Substance: sub}
	if t.groupBy.AC1 {
		k.AC1 = ac1
	}
	if t.groupBy.AC2 {
		k.AC2 = ac2
	}
	if t.groupBy.AC3 {
		k.AC3 = ac3
	}
	return k
}

func (t *Totals) accumulate(k TotalKey, rate *unit.Unit) {
	if sum, ok := t.sums[k]; ok {
		sum.Add(rate)
	} else {
		t.sums[k] = rate.Clone()
	}
}

// AddSourceRows accumulates point or area source emission rows.
func (t *Totals) AddSourceRows(rows []SourceEmissionRow) {
	for _, r := range rows {
		t.accumulate(t.key(r.Substance, r.ActivityCode1, r.ActivityCode2, r.ActivityCode3), r.Rate)
	}
}

// AddRoadRows accumulates road emission rows. Road rows carry no
// activity codes, so under a non-trivial grouping they collect under
// zero-code keys.
func (t *Totals) AddRoadRows(rows []RoadEmissionRow) {
	for _, r := range rows {
		t.accumulate(TotalKey{Substance: r.Substance}, r.Rate)
	}
}

// Sum returns the total for one key, or nil if nothing accumulated
// under it.
func (t *Totals) Sum(k TotalKey) *unit.Unit { return t.sums[k] }

// Keys returns the accumulated keys sorted by substance then activity
// codes.
func (t *Totals) Keys() []TotalKey {
	keys := make([]TotalKey, 0, len(t.sums))
	for k := range t.sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Substance != b.Substance {
			return a.Substance < b.Substance
		}
		if a.AC1 != b.AC1 {
			return a.AC1 < b.AC1
		}
		if a.AC2 != b.AC2 {
			return a.AC2 < b.AC2
		}
		return a.AC3 < b.AC3
	})
	return keys
}

// Len returns the number of accumulated keys.
func (t *Totals) Len() int { return len(t.sums) }

// SubstanceTotals collapses the grouping, returning the grand total per
// substance.
func (t *Totals) SubstanceTotals() map[edb.SubstanceID]*unit.Unit {
	out := make(map[edb.SubstanceID]*unit.Unit)
	for k, v := range t.sums {
		if sum, ok := out[k.Substance]; ok {
			sum.Add(v)
		} else {
			out[k.Substance] = v.Clone()
		}
	}
	return out
}
