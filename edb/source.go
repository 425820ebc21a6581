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

// SourceType distinguishes the three kinds of emission sources.
type SourceType string

// The available source types.
const (
	Point SourceType = "point"
	Area  SourceType = "area"
	Road  SourceType = "road"
)

// TimevarID identifies a time-variation profile within a snapshot.
// The zero value means "no profile".
type TimevarID int

// SourceData holds the descriptive attributes common to all source types.
type SourceData struct {
	ID   int
	Name string

	// Tags are free-form key/value labels used for filtering.
	Tags map[string]string

	// ActivityCode1, ActivityCode2 and ActivityCode3 classify the source
	// in up to three independent code sets. Zero means unset.
	ActivityCode1 ActivityCodeID
	ActivityCode2 ActivityCodeID
	ActivityCode3 ActivityCodeID

	// Timevar references an optional time-variation profile. It is carried
	// through for reporting and time-resolved post-processing.
	Timevar TimevarID
}

// GetSourceData returns d.
func (d *SourceData) GetSourceData() *SourceData { return d }

// A SourceSubstanceEmission is a directly reported emission of one
// substance from a source, in kg/s. Values that are not positive never
// contribute to computed emissions.
type SourceSubstanceEmission struct {
	Substance SubstanceID
	Value     float64
}

// A SourceActivity attaches an activity with a rate (activity units per
// second) to a source. Rates that are not positive never contribute.
type SourceActivity struct {
	Activity ActivityID
	Rate     float64
}

// An ActivitySource is an emission source whose emissions are given
// directly per substance and/or through activity rates and emission
// factors. PointSource and AreaSource both implement it; the emission
// computation treats them identically.
type ActivitySource interface {
	GetSourceData() *SourceData

	// Location returns the geometry of the source.
	Location() geom.Geom

	// SubstanceEmissions returns the directly reported emissions.
	SubstanceEmissions() []SourceSubstanceEmission

	// ActivityRates returns the activity rates of the source.
	ActivityRates() []SourceActivity
}

// A PointSource is an emission source at a single location.
type PointSource struct {
	SourceData

	Geom geom.Point

	Emissions  []SourceSubstanceEmission
	Activities []SourceActivity
}

// Location returns the location of the source.
func (s *PointSource) Location() geom.Geom { return s.Geom }

// SubstanceEmissions returns the directly reported emissions.
func (s *PointSource) SubstanceEmissions() []SourceSubstanceEmission { return s.Emissions }

// ActivityRates returns the activity rates of the source.
func (s *PointSource) ActivityRates() []SourceActivity { return s.Activities }

// An AreaSource is an emission source spread over a polygon.
type AreaSource struct {
	SourceData

	Geom geom.Polygon

	Emissions  []SourceSubstanceEmission
	Activities []SourceActivity
}

// Location returns the polygon covered by the source.
func (s *AreaSource) Location() geom.Geom { return s.Geom }

// SubstanceEmissions returns the directly reported emissions.
func (s *AreaSource) SubstanceEmissions() []SourceSubstanceEmission { return s.Emissions }

// ActivityRates returns the activity rates of the source.
func (s *AreaSource) ActivityRates() []SourceActivity { return s.Activities }
