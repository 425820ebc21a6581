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

// ActivityID identifies an activity within a snapshot.
type ActivityID int

// An Activity is a named process that emits substances in proportion to an
// activity rate, e.g. fuel combustion in units of GJ/s.
type Activity struct {
	ID   ActivityID
	Name string

	// Unit is the unit of the activity rate, for reporting only.
	Unit string
}

// An EmissionFactor gives the emission of one substance per unit of
// activity rate (kg per activity unit). Factors that are not positive
// never contribute to computed emissions.
type EmissionFactor struct {
	Activity  ActivityID
	Substance SubstanceID
	Factor    float64
}

// CodeSetID identifies a classification code set within a snapshot.
type CodeSetID int

// A CodeSet is one of up to three independent classification dimensions
// that activity codes belong to.
type CodeSet struct {
	ID   CodeSetID
	Slug string
	Name string
}

// ActivityCodeID identifies an activity code within a snapshot.
// The zero value means "no code".
type ActivityCodeID int

// An ActivityCode is a classification code attachable to sources for
// reporting breakdowns.
type ActivityCode struct {
	ID      ActivityCodeID
	CodeSet CodeSetID

	// Code is a hierarchical code such as "1.3.2".
	Code string

	Label string
}

func (c *ActivityCode) String() string { return c.Code }
