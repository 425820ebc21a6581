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

import "testing"

func TestNewFlowTimevar(t *testing.T) {
	tv, err := NewFlowTimevar(1, "weekday", [][]float64{
		{10, 10, 5},
		{5, 0, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tv.TypedaySum != 30 {
		t.Errorf("typeday sum: want 30, have %g", tv.TypedaySum)
	}
	r, c := tv.Typeday.Dims()
	if r != 2 || c != 3 {
		t.Errorf("dims: want 2×3, have %d×%d", r, c)
	}
	if v := tv.Typeday.At(1, 0); v != 5 {
		t.Errorf("Typeday.At(1,0): want 5, have %g", v)
	}
}

func TestNewFlowTimevarRagged(t *testing.T) {
	if _, err := NewFlowTimevar(1, "bad", [][]float64{{1, 2}, {3}}); err == nil {
		t.Error("ragged typeday: expected an error")
	}
	if _, err := NewFlowTimevar(1, "empty", nil); err == nil {
		t.Error("empty typeday: expected an error")
	}
}

func TestNewCongestionProfile(t *testing.T) {
	p, err := NewCongestionProfile(2, "rush hour", [][]float64{
		{1, 1, 2},
		{2, 3, 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v := p.TrafficCondition.At(1, 2); DrivingCondition(v) != Stopngo {
		t.Errorf("TrafficCondition.At(1,2): want %v, have %g", Stopngo, v)
	}
}

func TestDrivingConditionString(t *testing.T) {
	want := map[DrivingCondition]string{
		Freeflow:  "freeflow",
		Heavy:     "heavy",
		Saturated: "saturated",
		Stopngo:   "stopngo",
	}
	for c, w := range want {
		if c.String() != w {
			t.Errorf("DrivingCondition(%d).String(): want %q, have %q", c, w, c.String())
		}
	}
}
