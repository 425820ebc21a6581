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
	"regexp"
	"strings"

	"github.com/ctessum/geom"

	"github.com/spatialmodel/eminv/edb"
)

// A SubstanceSet selects substances to compute emissions for.
// A nil set selects all substances. Ids not present in the snapshot
// simply match nothing.
type SubstanceSet map[edb.SubstanceID]struct{}

// NewSubstanceSet builds a SubstanceSet from ids.
func NewSubstanceSet(ids ...edb.SubstanceID) SubstanceSet {
	s := make(SubstanceSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether the set selects id. A nil set selects
// everything.
func (s SubstanceSet) Contains(id edb.SubstanceID) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// An ACFilter selects vehicle/fuel combinations by activity code, with
// one id set per classification dimension. An empty dimension matches
// everything; a nil filter matches everything.
type ACFilter struct {
	AC1, AC2, AC3 []edb.ActivityCodeID
}

func acInSet(ac edb.ActivityCodeID, set []edb.ActivityCodeID) bool {
	if len(set) == 0 {
		return true
	}
	for _, id := range set {
		if id == ac {
			return true
		}
	}
	return false
}

// Matches reports whether the vehicle/fuel combination passes the filter.
func (f *ACFilter) Matches(c *edb.VehicleFuelComb) bool {
	if f == nil {
		return true
	}
	return acInSet(c.ActivityCode1, f.AC1) &&
		acInSet(c.ActivityCode2, f.AC2) &&
		acInSet(c.ActivityCode3, f.AC3)
}

// A SourceFilter selects sources to include in a computation. The zero
// value selects all sources.
type SourceFilter struct {
	// IDs restricts to the given source ids; nil means no restriction.
	IDs []int

	// Name restricts to sources whose name matches the regular
	// expression.
	Name *regexp.Regexp

	// Tags restricts by tag values. A value may carry a "=" or "!="
	// operator prefix; a bare value means equality. A "!=" condition also
	// matches sources lacking the tag.
	Tags map[string]string

	// Polygon restricts to sources located within the polygon.
	Polygon geom.Polygonal
}

// Matches reports whether a source with the given descriptive data and
// geometry passes the filter.
func (f *SourceFilter) Matches(d *edb.SourceData, g geom.Geom) bool {
	if f == nil {
		return true
	}
	if f.IDs != nil && !containsInt(f.IDs, d.ID) {
		return false
	}
	if f.Name != nil && !f.Name.MatchString(d.Name) {
		return false
	}
	for key, cond := range f.Tags {
		if !tagMatches(d.Tags, key, cond) {
			return false
		}
	}
	if f.Polygon != nil && !within(g, f.Polygon) {
		return false
	}
	return true
}

func containsInt(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func tagMatches(tags map[string]string, key, cond string) bool {
	val, ok := tags[key]
	if strings.HasPrefix(cond, "!=") {
		want := cond[2:]
		return !ok || val != want
	}
	want := strings.TrimPrefix(cond, "=")
	return ok && val == want
}

// within reports whether g is inside p. Linear and point-like geometries
// use exact containment; other geometries fall back to a bounding-box
// overlap test.
func within(g geom.Geom, p geom.Polygonal) bool {
	switch t := g.(type) {
	case geom.Linear:
		return t.Within(p) != geom.Outside
	case geom.PointLike:
		return t.Within(p) != geom.Outside
	default:
		return g.Bounds().Overlaps(p.Bounds())
	}
}
