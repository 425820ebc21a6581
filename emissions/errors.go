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
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/eminv/edb"
)

// A MalformedProfileError reports a congestion profile and flow timevar
// pair that cannot be resolved into driving-condition shares: mismatched
// shapes, a non-positive normalizing sum, or invalid data that would
// otherwise put NaN or Inf into totals.
type MalformedProfileError struct {
	Profile edb.CongestionProfileID
	Timevar edb.TimevarID
	Detail  string
}

func (e *MalformedProfileError) Error() string {
	return fmt.Sprintf("emissions: malformed congestion profile %d with timevar %d: %s",
		e.Profile, e.Timevar, e.Detail)
}

// GapKind classifies referential gaps: references that resolve to no
// data. Gaps contribute zero emission and are not errors.
type GapKind string

// The kinds of referential gaps.
const (
	// GapVehicleEF is a fleet member fuel with no matching vehicle
	// emission factor.
	GapVehicleEF GapKind = "vehicle emission factor"

	// GapEmissionFactor is a source activity whose activity has no
	// emission factor for any requested substance.
	GapEmissionFactor GapKind = "emission factor"

	// GapFleet is a road source referencing an unknown fleet.
	GapFleet GapKind = "fleet"

	// GapRoadClass is a road source whose road class matches no fleet
	// composition row.
	GapRoadClass GapKind = "road class"

	// GapTimevar is a congestion profile paired with an unknown flow
	// timevar; the pair falls back to free-flow conditions.
	GapTimevar GapKind = "flow timevar"
)

// A Gap records one referential gap for diagnostics.
type Gap struct {
	Kind GapKind

	// Entity locates the offending record, e.g. "road source 12".
	Entity string

	Detail string
}

func (g Gap) String() string {
	return fmt.Sprintf("%s: missing %s (%s)", g.Entity, g.Kind, g.Detail)
}

// A GapReport accumulates referential gaps encountered during a
// computation. It is safe for concurrent use.
type GapReport struct {
	mu   sync.Mutex
	gaps []Gap
}

func (r *GapReport) add(kind GapKind, entity, format string, args ...interface{}) {
	g := Gap{Kind: kind, Entity: entity, Detail: fmt.Sprintf(format, args...)}
	logrus.WithFields(logrus.Fields{
		"entity": g.Entity,
		"kind":   string(g.Kind),
	}).Debug(g.Detail)
	r.mu.Lock()
	r.gaps = append(r.gaps, g)
	r.mu.Unlock()
}

// Gaps returns the recorded gaps.
func (r *GapReport) Gaps() []Gap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Gap(nil), r.gaps...)
}

// Len returns the number of recorded gaps.
func (r *GapReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gaps)
}

// Merge adds the gaps from r2 into the receiver.
func (r *GapReport) Merge(r2 *GapReport) {
	if r2 == nil {
		return
	}
	g2 := r2.Gaps()
	r.mu.Lock()
	r.gaps = append(r.gaps, g2...)
	r.mu.Unlock()
}
