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

// Package emissions computes pollutant emissions from an edb.Snapshot:
// it resolves emission factors, fleet compositions and driving-condition
// weights, calculates per-source emission rates for point, area and road
// sources, and aggregates them into per-substance totals. The
// computation is pure: it reads the snapshot and produces result rows,
// mutating nothing.
package emissions

import "github.com/ctessum/unit"

// kilogramsPerSecond is the dimension of all emission rates inside the
// engine. Conversion to reporting units happens at the boundary.
var kilogramsPerSecond = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1}

// Rate returns v as a dimensioned emission rate in kg/s.
func Rate(v float64) *unit.Unit {
	return unit.New(v, kilogramsPerSecond)
}
