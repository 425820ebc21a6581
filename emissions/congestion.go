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
	"fmt"
	"math"
	"runtime"

	"github.com/ctessum/requestcache"

	"github.com/spatialmodel/eminv/edb"
	"github.com/spatialmodel/eminv/internal/hash"
)

// ConditionShares gives the fraction of traffic in each driving
// condition for one (congestion profile, flow timevar) pair. Shares of a
// resolved pair sum to 1.
type ConditionShares struct {
	Freeflow  float64
	Heavy     float64
	Saturated float64
	Stopngo   float64
}

// DefaultShares is used when a road has no congestion profile: all
// traffic in free-flow conditions.
var DefaultShares = ConditionShares{Freeflow: 1}

// Dot returns the share-weighted sum of the emission factors.
func (s ConditionShares) Dot(f edb.ConditionFactors) float64 {
	return s.Freeflow*f.Freeflow + s.Heavy*f.Heavy +
		s.Saturated*f.Saturated + s.Stopngo*f.Stopngo
}

// A sharePair identifies one (congestion profile, flow timevar)
// combination.
type sharePair struct {
	Profile edb.CongestionProfileID
	Timevar edb.TimevarID
}

func (p sharePair) String() string {
	return fmt.Sprintf("condshares_p%d_t%d", p.Profile, p.Timevar)
}

// conditionShares pairs the profile's condition codes with the timevar's
// flow weights element-wise and sums the flow per condition, normalized
// by the timevar's typeday sum.
func conditionShares(p *edb.CongestionProfile, tv *edb.FlowTimevar) (ConditionShares, error) {
	var s ConditionShares
	pr, pc := p.TrafficCondition.Dims()
	fr, fc := tv.Typeday.Dims()
	if pr != fr || pc != fc {
		return s, &MalformedProfileError{
			Profile: p.ID,
			Timevar: tv.ID,
			Detail:  fmt.Sprintf("typeday shapes differ: %d×%d vs %d×%d", pr, pc, fr, fc),
		}
	}
	if !(tv.TypedaySum > 0) || math.IsInf(tv.TypedaySum, 0) {
		return s, &MalformedProfileError{
			Profile: p.ID,
			Timevar: tv.ID,
			Detail:  fmt.Sprintf("typeday sum %g is not a usable divisor", tv.TypedaySum),
		}
	}
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			flow := tv.Typeday.At(i, j)
			if math.IsNaN(flow) || math.IsInf(flow, 0) || flow < 0 {
				return s, &MalformedProfileError{
					Profile: p.ID,
					Timevar: tv.ID,
					Detail:  fmt.Sprintf("flow weight %g at hour %d, day %d", flow, i, j),
				}
			}
			switch edb.DrivingCondition(p.TrafficCondition.At(i, j)) {
			case edb.Freeflow:
				s.Freeflow += flow
			case edb.Heavy:
				s.Heavy += flow
			case edb.Saturated:
				s.Saturated += flow
			case edb.Stopngo:
				s.Stopngo += flow
			default:
				return s, &MalformedProfileError{
					Profile: p.ID,
					Timevar: tv.ID,
					Detail:  fmt.Sprintf("invalid condition code %g at hour %d, day %d", p.TrafficCondition.At(i, j), i, j),
				}
			}
		}
	}
	s.Freeflow /= tv.TypedaySum
	s.Heavy /= tv.TypedaySum
	s.Saturated /= tv.TypedaySum
	s.Stopngo /= tv.TypedaySum
	return s, nil
}

// A ConditionTable holds the driving-condition shares for every
// (congestion profile, flow timevar) pair referenced by a computation.
// It is built once, before any road-segment calculation reads it, and is
// never mutated afterwards, so it may be read concurrently without
// locking.
type ConditionTable struct {
	shares map[sharePair]ConditionShares
}

// Shares returns the shares for a pair. Pairs that were not resolved
// when the table was built (no congestion profile, or an unknown
// profile) default to free-flow conditions.
func (t *ConditionTable) Shares(profile edb.CongestionProfileID, timevar edb.TimevarID) ConditionShares {
	if s, ok := t.shares[sharePair{profile, timevar}]; ok {
		return s
	}
	return DefaultShares
}

// BuildConditionTable computes the driving-condition shares for the
// distinct (congestion profile, flow timevar) pairs referenced by the
// snapshot's road sources and their fleets. Identical pairs are computed
// once, through a deduplicating in-memory cache. A pair whose profile or
// timevar is missing from the snapshot is recorded as a gap and falls
// back to free-flow; a malformed pair fails the whole build.
func BuildConditionTable(ctx context.Context, s *edb.Snapshot, gaps *GapReport) (*ConditionTable, error) {
	pairs := make(map[sharePair]struct{})
	for _, src := range s.RoadSources {
		if src.CongestionProfile == 0 {
			continue
		}
		fleet, ok := s.Fleets[src.Fleet]
		if !ok {
			continue // Reported when the road itself is calculated.
		}
		for _, m := range fleet.Members {
			pairs[sharePair{src.CongestionProfile, m.Timevar}] = struct{}{}
		}
	}

	cache := requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
		pair := req.(sharePair)
		p, ok := s.CongestionProfiles[pair.Profile]
		if !ok {
			return nil, nil // Unresolved; defaults apply.
		}
		tv, ok := s.FlowTimevars[pair.Timevar]
		if !ok {
			return nil, nil
		}
		shares, err := conditionShares(p, tv)
		if err != nil {
			return nil, err
		}
		return shares, nil
	}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(1000))

	t := &ConditionTable{shares: make(map[sharePair]ConditionShares, len(pairs))}
	for pair := range pairs {
		r := cache.NewRequest(ctx, pair, hash.Hash(pair))
		result, err := r.Result()
		if err != nil {
			return nil, err
		}
		if result == nil {
			if gaps != nil {
				if _, ok := s.CongestionProfiles[pair.Profile]; !ok {
					gaps.add(GapTimevar, fmt.Sprintf("congestion profile %d", pair.Profile),
						"profile not in snapshot; using free-flow")
				} else {
					gaps.add(GapTimevar, fmt.Sprintf("congestion profile %d", pair.Profile),
						"flow timevar %d not in snapshot; using free-flow", pair.Timevar)
				}
			}
			continue
		}
		t.shares[pair] = result.(ConditionShares)
	}
	return t, nil
}
