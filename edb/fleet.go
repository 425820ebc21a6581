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

// FleetID identifies a fleet within a snapshot.
type FleetID int

// A Fleet is a weighted composition of vehicle types used to model
// traffic on road sources.
type Fleet struct {
	ID   FleetID
	Name string

	// DefaultHeavyVehicleShare is the share of heavy vehicles used for
	// roads that do not override it, in [0, 1].
	DefaultHeavyVehicleShare float64

	Members []*FleetMember
}

// A FleetMemberFuel gives the fraction of a fleet member's
// vehicle-distance driven on one fuel.
type FleetMemberFuel struct {
	Fuel     VehicleFuelID
	Fraction float64
}

// A FleetMember is one vehicle type within a fleet.
type FleetMember struct {
	Vehicle VehicleID

	// Fraction is the fraction of traffic in the member's weight class
	// (heavy or light) made up by this vehicle.
	Fraction float64

	// ColdstartFraction is the fraction of vehicle-distance driven with a
	// cold engine.
	ColdstartFraction float64

	// Fuels gives the fuel mix of the member.
	Fuels []FleetMemberFuel

	// Timevar references the traffic time-variation profile of the
	// member; it selects the flow timevar paired with a road's congestion
	// profile. Zero means none.
	Timevar TimevarID

	// ColdstartTimevar references the time variation of engine starts,
	// carried through for reporting. Zero means none.
	ColdstartTimevar TimevarID
}
