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
	"io"
	"text/tabwriter"

	"github.com/spatialmodel/eminv/edb"
)

// A Table holds a text representation of report data.
type Table [][]string

// Tabbed creates a tab-separated table.
func (t Table) Tabbed(w io.Writer) (n int, err error) {
	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 0, '\t', 0)
	var nn int
	for _, l := range t {
		for _, r := range l {
			nn, err = fmt.Fprint(ww, r+"\t")
			if err != nil {
				return
			}
			n += nn
		}
		nn, err = fmt.Fprint(ww, "\n")
		if err != nil {
			return
		}
		n += nn
	}
	if err = ww.Flush(); err != nil {
		return
	}
	return
}

// codeLabel renders one activity code for a report, preferring the
// snapshot's label over the raw code.
func codeLabel(s *edb.Snapshot, id edb.ActivityCodeID) string {
	if id == 0 {
		return ""
	}
	ac, ok := s.ActivityCodes[id]
	if !ok {
		return fmt.Sprintf("code %d", id)
	}
	if ac.Label != "" {
		return fmt.Sprintf("%s (%s)", ac.Code, ac.Label)
	}
	return ac.Code
}

// TotalsTable returns a table of the aggregated totals, one row per
// key, with substance slugs and activity-code labels resolved against
// the snapshot.
func TotalsTable(s *edb.Snapshot, t *Totals) Table {
	out := Table{{"Substance", "Code 1", "Code 2", "Code 3", "Emission (kg/s)"}}
	for _, k := range t.Keys() {
		sub, ok := s.Substances[k.Substance]
		name := fmt.Sprintf("substance %d", k.Substance)
		if ok {
			name = sub.Slug
		}
		out = append(out, []string{
			name,
			codeLabel(s, k.AC1),
			codeLabel(s, k.AC2),
			codeLabel(s, k.AC3),
			fmt.Sprintf("%g", t.Sum(k).Value()),
		})
	}
	return out
}

// GapsTable returns a table of the referential gaps in a report.
func GapsTable(r *GapReport) Table {
	out := Table{{"Kind", "Entity", "Detail"}}
	for _, g := range r.Gaps() {
		out = append(out, []string{string(g.Kind), g.Entity, g.Detail})
	}
	return out
}
