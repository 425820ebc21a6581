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

package edb

import (
	"fmt"
	"sort"
)

// A Snapshot is a complete, immutable view of the emission database used
// for one computation. External collaborators (importers, a database
// layer) populate it before the computation starts; the engine only
// reads it.
type Snapshot struct {
	Substances      map[SubstanceID]*Substance
	Activities      map[ActivityID]*Activity
	EmissionFactors []*EmissionFactor

	CodeSets      map[CodeSetID]*CodeSet
	ActivityCodes map[ActivityCodeID]*ActivityCode

	PointSources []*PointSource
	AreaSources  []*AreaSource
	RoadSources  []*RoadSource

	Fleets            map[FleetID]*Fleet
	Vehicles          map[VehicleID]*Vehicle
	VehicleFuels      map[VehicleFuelID]*VehicleFuel
	VehicleFuelCombs  []*VehicleFuelComb
	VehicleEFs        []*VehicleEF
	RoadClasses       map[RoadClassID]*RoadClass
	TrafficSituations map[TrafficSituationID]*TrafficSituation

	CongestionProfiles map[CongestionProfileID]*CongestionProfile
	FlowTimevars       map[TimevarID]*FlowTimevar
	ColdstartTimevars  map[TimevarID]*ColdstartTimevar

	// TrafficWork is the synthetic substance representing vehicle-distance
	// driven. It is configured once here rather than hard-coded at call
	// sites; zero means the snapshot has no traffic-work substance.
	TrafficWork SubstanceID
}

// NewSnapshot returns an empty snapshot with all lookup tables
// initialized.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Substances:         make(map[SubstanceID]*Substance),
		Activities:         make(map[ActivityID]*Activity),
		CodeSets:           make(map[CodeSetID]*CodeSet),
		ActivityCodes:      make(map[ActivityCodeID]*ActivityCode),
		Fleets:             make(map[FleetID]*Fleet),
		Vehicles:           make(map[VehicleID]*Vehicle),
		VehicleFuels:       make(map[VehicleFuelID]*VehicleFuel),
		RoadClasses:        make(map[RoadClassID]*RoadClass),
		TrafficSituations:  make(map[TrafficSituationID]*TrafficSituation),
		CongestionProfiles: make(map[CongestionProfileID]*CongestionProfile),
		FlowTimevars:       make(map[TimevarID]*FlowTimevar),
		ColdstartTimevars:  make(map[TimevarID]*ColdstartTimevar),
	}
}

// SubstanceBySlug returns the substance with the given slug.
func (s *Snapshot) SubstanceBySlug(slug string) (*Substance, error) {
	for _, sub := range s.Substances {
		if sub.Slug == slug {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("edb: no substance with slug %q", slug)
}

// UsedSubstances returns the substances that have emissions or emission
// factors anywhere in the snapshot, sorted by slug. The traffic-work
// substance is not included.
func (s *Snapshot) UsedSubstances() []*Substance {
	used := make(map[SubstanceID]struct{})
	for _, ef := range s.EmissionFactors {
		if ef.Factor > 0 {
			used[ef.Substance] = struct{}{}
		}
	}
	for _, ef := range s.VehicleEFs {
		used[ef.Substance] = struct{}{}
	}
	for _, src := range s.PointSources {
		for _, e := range src.Emissions {
			if e.Value > 0 {
				used[e.Substance] = struct{}{}
			}
		}
	}
	for _, src := range s.AreaSources {
		for _, e := range src.Emissions {
			if e.Value > 0 {
				used[e.Substance] = struct{}{}
			}
		}
	}
	delete(used, s.TrafficWork)
	out := make([]*Substance, 0, len(used))
	for id := range used {
		if sub, ok := s.Substances[id]; ok {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// CodeLabels returns the code → label mapping of one code set.
func (s *Snapshot) CodeLabels(cs CodeSetID) map[string]string {
	labels := make(map[string]string)
	for _, c := range s.ActivityCodes {
		if c.CodeSet == cs {
			labels[c.Code] = c.Label
		}
	}
	return labels
}
