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

package eminvutil

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/eminv/edb"
)

func TestReadConfig(t *testing.T) {
	r, err := os.Open("testdata/example_config.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	c, err := ReadConfig(r)
	if err != nil {
		t.Fatal(err)
	}

	if c.SnapshotFile != "testdata/snapshot.xlsx" {
		t.Errorf("SnapshotFile: have %q", c.SnapshotFile)
	}
	if want := []string{"NOx", "CO"}; !reflect.DeepEqual(c.Substances, want) {
		t.Errorf("Substances: want %v, have %v", want, c.Substances)
	}
	if c.MinAADT == nil || *c.MinAADT != 100 {
		t.Errorf("MinAADT: want 100, have %v", c.MinAADT)
	}
	if !c.GroupByCode1 || c.GroupByCode2 {
		t.Errorf("grouping: have %v %v %v", c.GroupByCode1, c.GroupByCode2, c.GroupByCode3)
	}
	if want := map[string]string{"municipality": "north", "owner": "!=city"}; !reflect.DeepEqual(c.Filter.Tags, want) {
		t.Errorf("Filter.Tags: want %v, have %v", want, c.Filter.Tags)
	}

	if !c.HasSourceType(edb.Point) || c.HasSourceType(edb.Area) || !c.HasSourceType(edb.Road) {
		t.Error("SourceTypes: want point and road only")
	}

	f := c.SourceFilter()
	if !reflect.DeepEqual(f.IDs, []int{1, 2, 3}) {
		t.Errorf("filter ids: have %v", f.IDs)
	}
	if f.Name == nil || !f.Name.MatchString("plant north") {
		t.Error("filter name expression should match 'plant north'")
	}

	rc, err := c.RoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if rc.MinAADT != 100 || rc.SimplifyTolerance != 0.5 || rc.Workers != 4 {
		t.Errorf("road config: have %+v", rc)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		c    Config
		err  string
	}{
		{
			name: "missing snapshot",
			c:    Config{},
			err:  "SnapshotFile",
		},
		{
			name: "bad source type",
			c:    Config{SnapshotFile: "x", SourceTypes: []string{"train"}},
			err:  "source type",
		},
		{
			name: "bad units",
			c:    Config{SnapshotFile: "x", OutputUnits: "lbs/fortnight"},
			err:  "output units",
		},
		{
			name: "bad name expression",
			c:    Config{SnapshotFile: "x", Filter: FilterConfig{Name: "("}},
			err:  "name expression",
		},
	}
	for _, test := range tests {
		err := test.c.Validate()
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("%s: error %q does not mention %q", test.name, err, test.err)
		}
	}

	neg := -1.0
	c := Config{SnapshotFile: "x", MinAADT: &neg}
	if err := c.Validate(); err == nil {
		t.Error("negative MinAADT: expected an error")
	}

	c = Config{SnapshotFile: "x"}
	if err := c.Validate(); err != nil {
		t.Errorf("minimal config: unexpected error %v", err)
	}
	if _, err := c.RoadConfig(); err == nil {
		t.Error("unset MinAADT: road config should fail")
	}
}

func TestOutputConversion(t *testing.T) {
	tests := []struct {
		units  string
		factor float64
	}{
		{"", 1},
		{"kg/s", 1},
		{"g/s", 1000},
		{"kg/h", 3600},
		{"kg/day", 86400},
		{"tonnes/year", 3600 * 24 * 365.25 / 1000},
	}
	for _, test := range tests {
		f, err := OutputConversion(test.units)
		if err != nil {
			t.Errorf("%q: %v", test.units, err)
			continue
		}
		if f != test.factor {
			t.Errorf("%q: want %g, have %g", test.units, test.factor, f)
		}
	}
	if _, err := OutputConversion("stone/week"); err == nil {
		t.Error("invalid units: expected an error")
	}
}
