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

// Package edb holds the emission database model: the reference and source
// entities that one emission computation operates on. All entities are
// treated as a read-only snapshot for the duration of a computation;
// nothing in this package mutates them.
package edb

// SubstanceID identifies a substance within a snapshot.
type SubstanceID int

// A Substance is a chemical substance (or the synthetic traffic-work
// quantity; see Snapshot.TrafficWork).
type Substance struct {
	ID SubstanceID

	// Slug is a short unique code, e.g. "NOx".
	Slug string

	Name string

	LongName string
}

func (s *Substance) String() string { return s.Slug }
