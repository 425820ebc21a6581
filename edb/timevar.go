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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A FlowTimevar is the typical-day traffic-volume profile of a fleet
// member: a matrix of flow weights with one row per hour of day and one
// column per day of week (24×7 for a full typeday, but any consistent
// shape is accepted). TypedaySum, the total of all entries, is the
// normalizing denominator for driving-condition shares.
type FlowTimevar struct {
	ID   TimevarID
	Name string

	Typeday *mat.Dense

	TypedaySum float64
}

// NewFlowTimevar builds a FlowTimevar from row-major typeday data.
// All rows must have the same length.
func NewFlowTimevar(id TimevarID, name string, typeday [][]float64) (*FlowTimevar, error) {
	m, err := denseFromRows(typeday)
	if err != nil {
		return nil, fmt.Errorf("edb.NewFlowTimevar: timevar %d (%s): %v", id, name, err)
	}
	return &FlowTimevar{
		ID:         id,
		Name:       name,
		Typeday:    m,
		TypedaySum: floats.Sum(m.RawMatrix().Data),
	}, nil
}

// A ColdstartTimevar is the typical-day profile of engine-start events.
// It is reference data carried through for time-resolved post-processing;
// the aggregation itself only uses the fleet member coldstart fraction.
type ColdstartTimevar struct {
	ID   TimevarID
	Name string

	Typeday *mat.Dense
}

// A CongestionProfile gives the driving condition prevailing in each hour
// of a typical day, as a matrix of condition codes (1=freeflow, 2=heavy,
// 3=saturated, 4=stopngo) with the same shape convention as FlowTimevar.
type CongestionProfile struct {
	ID   CongestionProfileID
	Name string

	TrafficCondition *mat.Dense
}

// NewCongestionProfile builds a CongestionProfile from row-major
// condition-code data. All rows must have the same length. Code values
// are validated during the computation, not here, so that a profile that
// is never referenced cannot fail a run.
func NewCongestionProfile(id CongestionProfileID, name string, condition [][]float64) (*CongestionProfile, error) {
	m, err := denseFromRows(condition)
	if err != nil {
		return nil, fmt.Errorf("edb.NewCongestionProfile: profile %d (%s): %v", id, name, err)
	}
	return &CongestionProfile{ID: id, Name: name, TrafficCondition: m}, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty typeday data")
	}
	nc := len(rows[0])
	data := make([]float64, 0, len(rows)*nc)
	for i, r := range rows {
		if len(r) != nc {
			return nil, fmt.Errorf("ragged typeday data: row %d has %d entries, expected %d", i, len(r), nc)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), nc, data), nil
}
