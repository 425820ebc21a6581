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

import "github.com/ctessum/geom"

// DrivingCondition is a level-of-service condition code for road traffic.
type DrivingCondition int

// The four driving conditions, in order of increasing congestion.
const (
	Freeflow DrivingCondition = iota + 1
	Heavy
	Saturated
	Stopngo
)

func (c DrivingCondition) String() string {
	switch c {
	case Freeflow:
		return "freeflow"
	case Heavy:
		return "heavy"
	case Saturated:
		return "saturated"
	case Stopngo:
		return "stopngo"
	}
	return "unknown"
}

// TrafficSituationID identifies a traffic situation within a snapshot.
type TrafficSituationID int

// A TrafficSituation is a driving-condition regime for which vehicle
// emission factors are given.
type TrafficSituation struct {
	ID   TrafficSituationID
	Name string
}

// RoadClassID identifies a road class within a snapshot.
type RoadClassID int

// A RoadClass maps a category of roads to exactly one traffic situation.
type RoadClass struct {
	ID               RoadClassID
	Name             string
	TrafficSituation TrafficSituationID
}

// VehicleID identifies a vehicle type within a snapshot.
type VehicleID int

// A Vehicle is a vehicle type appearing in fleets.
type Vehicle struct {
	ID      VehicleID
	Name    string
	IsHeavy bool

	// MaxSpeed is the maximum speed of the vehicle type (km/h), carried
	// through for reporting.
	MaxSpeed float64
}

// VehicleFuelID identifies a fuel within a snapshot.
type VehicleFuelID int

// A VehicleFuel is a fuel that vehicles run on.
type VehicleFuel struct {
	ID   VehicleFuelID
	Name string
}

// A VehicleFuelComb links a vehicle and a fuel, with up to three activity
// codes used for filtering. Emission factors exist per combination.
type VehicleFuelComb struct {
	Vehicle VehicleID
	Fuel    VehicleFuelID

	ActivityCode1 ActivityCodeID
	ActivityCode2 ActivityCodeID
	ActivityCode3 ActivityCodeID
}

// ConditionFactors holds one emission-factor value per driving condition,
// in kg per vehicle-meter.
type ConditionFactors struct {
	Freeflow  float64
	Heavy     float64
	Saturated float64
	Stopngo   float64
}

// A VehicleEF gives the emission factors for one vehicle, fuel, traffic
// situation and substance, plus a separate coldstart factor (kg per
// vehicle-meter attributable to engine starts).
type VehicleEF struct {
	Vehicle   VehicleID
	Fuel      VehicleFuelID
	Situation TrafficSituationID
	Substance SubstanceID

	ConditionFactors

	Coldstart float64
}

// CongestionProfileID identifies a congestion profile within a snapshot.
// The zero value means "no profile".
type CongestionProfileID int

// A RoadSource is a road traffic link.
type RoadSource struct {
	SourceData

	Geom geom.LineString

	// AADT is the annual average daily traffic in vehicles per day.
	AADT float64

	// HeavyVehicleShare overrides the fleet default heavy-vehicle share
	// for this road when non-nil.
	HeavyVehicleShare *float64

	Fleet             FleetID
	RoadClass         RoadClassID
	CongestionProfile CongestionProfileID

	// Descriptive road attributes, carried through unmodified for
	// reporting and visualization.
	NoLanes          int
	Speed            float64
	Width            float64
	MedianStripWidth float64
	Slope            float64
}

// DrivableWidth returns the road width excluding the median strip.
func (r *RoadSource) DrivableWidth() float64 {
	return r.Width - r.MedianStripWidth
}

// HeavyShare resolves the heavy-vehicle share of the road: the road
// override if set, otherwise the fleet default.
func (r *RoadSource) HeavyShare(f *Fleet) float64 {
	if r.HeavyVehicleShare != nil {
		return *r.HeavyVehicleShare
	}
	return f.DefaultHeavyVehicleShare
}
