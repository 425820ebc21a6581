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
	"reflect"
	"testing"
)

func TestSubstanceBySlug(t *testing.T) {
	s := NewSnapshot()
	s.Substances[7] = &Substance{ID: 7, Slug: "NOx", Name: "nitrogen oxides"}

	sub, err := s.SubstanceBySlug("NOx")
	if err != nil {
		t.Fatal(err)
	}
	if sub.ID != 7 {
		t.Errorf("want substance 7, have %d", sub.ID)
	}
	if _, err := s.SubstanceBySlug("SOx"); err == nil {
		t.Error("unknown slug: expected an error")
	}
}

func TestUsedSubstances(t *testing.T) {
	s := NewSnapshot()
	s.Substances[1] = &Substance{ID: 1, Slug: "NOx"}
	s.Substances[2] = &Substance{ID: 2, Slug: "CO"}
	s.Substances[3] = &Substance{ID: 3, Slug: "SOx"}
	s.Substances[4] = &Substance{ID: 4, Slug: "traffic_work"}
	s.TrafficWork = 4

	s.EmissionFactors = []*EmissionFactor{
		{Activity: 1, Substance: 2, Factor: 1.5},
		{Activity: 1, Substance: 3, Factor: 0}, // unused: non-positive factor
	}
	s.VehicleEFs = []*VehicleEF{
		{Vehicle: 1, Fuel: 1, Situation: 1, Substance: 1},
		{Vehicle: 1, Fuel: 1, Situation: 1, Substance: 4},
	}

	var slugs []string
	for _, sub := range s.UsedSubstances() {
		slugs = append(slugs, sub.Slug)
	}
	want := []string{"CO", "NOx"}
	if !reflect.DeepEqual(slugs, want) {
		t.Errorf("used substances: want %v, have %v", want, slugs)
	}
}

func TestCodeLabels(t *testing.T) {
	s := NewSnapshot()
	s.CodeSets[1] = &CodeSet{ID: 1, Slug: "gnfr"}
	s.ActivityCodes[10] = &ActivityCode{ID: 10, CodeSet: 1, Code: "A", Label: "Public power"}
	s.ActivityCodes[11] = &ActivityCode{ID: 11, CodeSet: 1, Code: "B", Label: "Industry"}
	s.ActivityCodes[12] = &ActivityCode{ID: 12, CodeSet: 2, Code: "1", Label: "Other"}

	want := map[string]string{"A": "Public power", "B": "Industry"}
	if labels := s.CodeLabels(1); !reflect.DeepEqual(labels, want) {
		t.Errorf("code labels: want %v, have %v", want, labels)
	}
}
