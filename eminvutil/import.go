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
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/tealeg/xlsx"

	"github.com/spatialmodel/eminv/edb"
)

// The sheet names of a snapshot workbook. Sheets holding optional data
// may be absent.
const (
	sheetSettings          = "Settings"
	sheetSubstance         = "Substance"
	sheetCodeSet           = "CodeSet"
	sheetActivityCode      = "ActivityCode"
	sheetActivity          = "Activity"
	sheetEmissionFactor    = "EmissionFactor"
	sheetFlowTimevar       = "FlowTimevar"
	sheetColdstartTimevar  = "ColdstartTimevar"
	sheetCongestionProfile = "CongestionProfile"
	sheetTrafficSituation  = "TrafficSituation"
	sheetRoadClass         = "RoadClass"
	sheetVehicle           = "Vehicle"
	sheetVehicleFuel       = "VehicleFuel"
	sheetVehicleFuelComb   = "VehicleFuelComb"
	sheetVehicleEF         = "VehicleEF"
	sheetFleet             = "Fleet"
	sheetFleetMember       = "FleetMember"
	sheetFleetMemberFuel   = "FleetMemberFuel"
	sheetPointSource       = "PointSource"
	sheetAreaSource        = "AreaSource"
	sheetRoadSource        = "RoadSource"
	sheetSourceEmission    = "SourceEmission"
	sheetSourceActivity    = "SourceActivity"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("eminvutil: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// A record is one data row of a workbook sheet, with columns addressed
// by the header names in the sheet's first row.
type record struct {
	sheet string
	line  int
	cols  map[string]int
	cells []*xlsx.Cell
}

func (r *record) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("eminvutil: sheet %s row %d: %s", r.sheet, r.line, fmt.Sprintf(format, args...))
}

func (r *record) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i].Value)
}

func (r *record) intval(col string) (int, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		// Excel numeric cells may carry a float representation.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, r.errorf("column %s: %v", col, err)
		}
		i = int(f)
	}
	return i, nil
}

func (r *record) floatval(col string) (float64, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.errorf("column %s: %v", col, err)
	}
	return f, nil
}

func (r *record) boolval(col string) (bool, error) {
	switch strings.ToLower(r.str(col)) {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	default:
		return false, r.errorf("column %s: invalid boolean %q", col, r.str(col))
	}
}

// optFloat returns nil for an empty cell.
func (r *record) optFloat(col string) (*float64, error) {
	if r.str(col) == "" {
		return nil, nil
	}
	f, err := r.floatval(col)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// forEachRecord calls fn for each data row of the named sheet. A
// missing sheet is not an error when optional is true.
func forEachRecord(f *xlsx.File, name string, optional bool, fn func(*record) error) error {
	s, ok := f.Sheet[name]
	if !ok {
		if optional {
			return nil
		}
		return fmt.Errorf("eminvutil: snapshot workbook has no sheet %s", name)
	}
	if len(s.Rows) == 0 {
		return nil
	}
	cols := make(map[string]int)
	for i, c := range s.Rows[0].Cells {
		h := strings.TrimSpace(c.Value)
		if h != "" {
			cols[h] = i
		}
	}
	for i, row := range s.Rows[1:] {
		empty := true
		for _, c := range row.Cells {
			if strings.TrimSpace(c.Value) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		r := &record{sheet: name, line: i + 2, cols: cols, cells: row.Cells}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// parseMatrix parses a matrix literal where rows are separated by
// semicolons and values by whitespace, e.g. "1 2 3; 4 5 6".
func parseMatrix(s string) ([][]float64, error) {
	var rows [][]float64
	for _, line := range strings.Split(s, ";") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid matrix value %q", f)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	return rows, nil
}

// parseCoords parses a coordinate list where points are separated by
// commas and ordinates by whitespace, e.g. "0 0, 100 0, 100 100".
func parseCoords(s string) ([]geom.Point, error) {
	var pts []geom.Point
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair %q", part)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ordinate %q", fields[0])
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ordinate %q", fields[1])
		}
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("empty coordinate list")
	}
	return pts, nil
}

// parseTags parses a tag list of semicolon-separated key=value pairs.
func parseTags(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	tags := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid tag %q", part)
		}
		tags[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return tags, nil
}

func (r *record) sourceData() (edb.SourceData, error) {
	var d edb.SourceData
	var err error
	if d.ID, err = r.intval("id"); err != nil {
		return d, err
	}
	d.Name = r.str("name")
	if d.Tags, err = parseTags(r.str("tags")); err != nil {
		return d, r.errorf("column tags: %v", err)
	}
	var ac [3]int
	for i, col := range []string{"code1", "code2", "code3"} {
		if ac[i], err = r.intval(col); err != nil {
			return d, err
		}
	}
	d.ActivityCode1 = edb.ActivityCodeID(ac[0])
	d.ActivityCode2 = edb.ActivityCodeID(ac[1])
	d.ActivityCode3 = edb.ActivityCodeID(ac[2])
	tv, err := r.intval("timevar")
	if err != nil {
		return d, err
	}
	d.Timevar = edb.TimevarID(tv)
	return d, nil
}

// ReadSnapshot reads an emission database snapshot from an xlsx
// workbook. References between sheets are not checked here; dangling
// references surface as gaps or errors during calculation.
func ReadSnapshot(fileName string) (*edb.Snapshot, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	s := edb.NewSnapshot()

	err = forEachRecord(f, sheetSubstance, false, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		s.Substances[edb.SubstanceID(id)] = &edb.Substance{
			ID:       edb.SubstanceID(id),
			Slug:     r.str("slug"),
			Name:     r.str("name"),
			LongName: r.str("long_name"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetCodeSet, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		s.CodeSets[edb.CodeSetID(id)] = &edb.CodeSet{
			ID:   edb.CodeSetID(id),
			Slug: r.str("slug"),
			Name: r.str("name"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetActivityCode, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		cs, err := r.intval("code_set")
		if err != nil {
			return err
		}
		s.ActivityCodes[edb.ActivityCodeID(id)] = &edb.ActivityCode{
			ID:      edb.ActivityCodeID(id),
			CodeSet: edb.CodeSetID(cs),
			Code:    r.str("code"),
			Label:   r.str("label"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetActivity, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		s.Activities[edb.ActivityID(id)] = &edb.Activity{
			ID:   edb.ActivityID(id),
			Name: r.str("name"),
			Unit: r.str("unit"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetEmissionFactor, true, func(r *record) error {
		act, err := r.intval("activity")
		if err != nil {
			return err
		}
		sub, err := r.intval("substance")
		if err != nil {
			return err
		}
		factor, err := r.floatval("factor")
		if err != nil {
			return err
		}
		s.EmissionFactors = append(s.EmissionFactors, &edb.EmissionFactor{
			Activity:  edb.ActivityID(act),
			Substance: edb.SubstanceID(sub),
			Factor:    factor,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetFlowTimevar, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		rows, err := parseMatrix(r.str("typeday"))
		if err != nil {
			return r.errorf("column typeday: %v", err)
		}
		tv, err := edb.NewFlowTimevar(edb.TimevarID(id), r.str("name"), rows)
		if err != nil {
			return r.errorf("%v", err)
		}
		s.FlowTimevars[tv.ID] = tv
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetColdstartTimevar, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		rows, err := parseMatrix(r.str("typeday"))
		if err != nil {
			return r.errorf("column typeday: %v", err)
		}
		m, err := edb.NewFlowTimevar(edb.TimevarID(id), r.str("name"), rows)
		if err != nil {
			return r.errorf("%v", err)
		}
		s.ColdstartTimevars[m.ID] = &edb.ColdstartTimevar{ID: m.ID, Name: m.Name, Typeday: m.Typeday}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetCongestionProfile, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		rows, err := parseMatrix(r.str("traffic_condition"))
		if err != nil {
			return r.errorf("column traffic_condition: %v", err)
		}
		p, err := edb.NewCongestionProfile(edb.CongestionProfileID(id), r.str("name"), rows)
		if err != nil {
			return r.errorf("%v", err)
		}
		s.CongestionProfiles[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetTrafficSituation, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		s.TrafficSituations[edb.TrafficSituationID(id)] = &edb.TrafficSituation{
			ID:   edb.TrafficSituationID(id),
			Name: r.str("name"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetRoadClass, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		ts, err := r.intval("traffic_situation")
		if err != nil {
			return err
		}
		s.RoadClasses[edb.RoadClassID(id)] = &edb.RoadClass{
			ID:               edb.RoadClassID(id),
			Name:             r.str("name"),
			TrafficSituation: edb.TrafficSituationID(ts),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetVehicle, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		heavy, err := r.boolval("is_heavy")
		if err != nil {
			return err
		}
		maxSpeed, err := r.floatval("max_speed")
		if err != nil {
			return err
		}
		s.Vehicles[edb.VehicleID(id)] = &edb.Vehicle{
			ID:       edb.VehicleID(id),
			Name:     r.str("name"),
			IsHeavy:  heavy,
			MaxSpeed: maxSpeed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetVehicleFuel, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		s.VehicleFuels[edb.VehicleFuelID(id)] = &edb.VehicleFuel{
			ID:   edb.VehicleFuelID(id),
			Name: r.str("name"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetVehicleFuelComb, true, func(r *record) error {
		veh, err := r.intval("vehicle")
		if err != nil {
			return err
		}
		fuel, err := r.intval("fuel")
		if err != nil {
			return err
		}
		var ac [3]int
		for i, col := range []string{"code1", "code2", "code3"} {
			if ac[i], err = r.intval(col); err != nil {
				return err
			}
		}
		s.VehicleFuelCombs = append(s.VehicleFuelCombs, &edb.VehicleFuelComb{
			Vehicle:       edb.VehicleID(veh),
			Fuel:          edb.VehicleFuelID(fuel),
			ActivityCode1: edb.ActivityCodeID(ac[0]),
			ActivityCode2: edb.ActivityCodeID(ac[1]),
			ActivityCode3: edb.ActivityCodeID(ac[2]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetVehicleEF, true, func(r *record) error {
		veh, err := r.intval("vehicle")
		if err != nil {
			return err
		}
		fuel, err := r.intval("fuel")
		if err != nil {
			return err
		}
		sit, err := r.intval("traffic_situation")
		if err != nil {
			return err
		}
		sub, err := r.intval("substance")
		if err != nil {
			return err
		}
		var vals [5]float64
		for i, col := range []string{"freeflow", "heavy", "saturated", "stopngo", "coldstart"} {
			if vals[i], err = r.floatval(col); err != nil {
				return err
			}
		}
		s.VehicleEFs = append(s.VehicleEFs, &edb.VehicleEF{
			Vehicle:   edb.VehicleID(veh),
			Fuel:      edb.VehicleFuelID(fuel),
			Situation: edb.TrafficSituationID(sit),
			Substance: edb.SubstanceID(sub),
			ConditionFactors: edb.ConditionFactors{
				Freeflow:  vals[0],
				Heavy:     vals[1],
				Saturated: vals[2],
				Stopngo:   vals[3],
			},
			Coldstart: vals[4],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetFleet, true, func(r *record) error {
		id, err := r.intval("id")
		if err != nil {
			return err
		}
		share, err := r.floatval("default_heavy_vehicle_share")
		if err != nil {
			return err
		}
		if share < 0 || share > 1 {
			return r.errorf("default_heavy_vehicle_share %g is outside [0, 1]", share)
		}
		s.Fleets[edb.FleetID(id)] = &edb.Fleet{
			ID:                       edb.FleetID(id),
			Name:                     r.str("name"),
			DefaultHeavyVehicleShare: share,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	members := make(map[edb.FleetID]map[edb.VehicleID]*edb.FleetMember)
	err = forEachRecord(f, sheetFleetMember, true, func(r *record) error {
		fleetID, err := r.intval("fleet")
		if err != nil {
			return err
		}
		fleet, ok := s.Fleets[edb.FleetID(fleetID)]
		if !ok {
			return r.errorf("fleet %d is not in sheet %s", fleetID, sheetFleet)
		}
		veh, err := r.intval("vehicle")
		if err != nil {
			return err
		}
		fraction, err := r.floatval("fraction")
		if err != nil {
			return err
		}
		coldFraction, err := r.floatval("coldstart_fraction")
		if err != nil {
			return err
		}
		tv, err := r.intval("timevar")
		if err != nil {
			return err
		}
		ctv, err := r.intval("coldstart_timevar")
		if err != nil {
			return err
		}
		m := &edb.FleetMember{
			Vehicle:           edb.VehicleID(veh),
			Fraction:          fraction,
			ColdstartFraction: coldFraction,
			Timevar:           edb.TimevarID(tv),
			ColdstartTimevar:  edb.TimevarID(ctv),
		}
		fleet.Members = append(fleet.Members, m)
		if members[fleet.ID] == nil {
			members[fleet.ID] = make(map[edb.VehicleID]*edb.FleetMember)
		}
		members[fleet.ID][m.Vehicle] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetFleetMemberFuel, true, func(r *record) error {
		fleetID, err := r.intval("fleet")
		if err != nil {
			return err
		}
		veh, err := r.intval("vehicle")
		if err != nil {
			return err
		}
		m, ok := members[edb.FleetID(fleetID)][edb.VehicleID(veh)]
		if !ok {
			return r.errorf("fleet %d vehicle %d is not in sheet %s", fleetID, veh, sheetFleetMember)
		}
		fuel, err := r.intval("fuel")
		if err != nil {
			return err
		}
		fraction, err := r.floatval("fraction")
		if err != nil {
			return err
		}
		m.Fuels = append(m.Fuels, edb.FleetMemberFuel{
			Fuel:     edb.VehicleFuelID(fuel),
			Fraction: fraction,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	pointSources := make(map[int]*edb.PointSource)
	err = forEachRecord(f, sheetPointSource, true, func(r *record) error {
		d, err := r.sourceData()
		if err != nil {
			return err
		}
		pts, err := parseCoords(r.str("geometry"))
		if err != nil {
			return r.errorf("column geometry: %v", err)
		}
		src := &edb.PointSource{SourceData: d, Geom: pts[0]}
		s.PointSources = append(s.PointSources, src)
		pointSources[d.ID] = src
		return nil
	})
	if err != nil {
		return nil, err
	}

	areaSources := make(map[int]*edb.AreaSource)
	err = forEachRecord(f, sheetAreaSource, true, func(r *record) error {
		d, err := r.sourceData()
		if err != nil {
			return err
		}
		pts, err := parseCoords(r.str("geometry"))
		if err != nil {
			return r.errorf("column geometry: %v", err)
		}
		src := &edb.AreaSource{SourceData: d, Geom: geom.Polygon{pts}}
		s.AreaSources = append(s.AreaSources, src)
		areaSources[d.ID] = src
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetRoadSource, true, func(r *record) error {
		d, err := r.sourceData()
		if err != nil {
			return err
		}
		pts, err := parseCoords(r.str("geometry"))
		if err != nil {
			return r.errorf("column geometry: %v", err)
		}
		src := &edb.RoadSource{SourceData: d, Geom: geom.LineString(pts)}
		if src.AADT, err = r.floatval("aadt"); err != nil {
			return err
		}
		if src.HeavyVehicleShare, err = r.optFloat("heavy_vehicle_share"); err != nil {
			return err
		}
		if src.HeavyVehicleShare != nil {
			if v := *src.HeavyVehicleShare; v < 0 || v > 1 {
				return r.errorf("heavy_vehicle_share %g is outside [0, 1]", v)
			}
		}
		ids := make([]int, 3)
		for i, col := range []string{"fleet", "road_class", "congestion_profile"} {
			if ids[i], err = r.intval(col); err != nil {
				return err
			}
		}
		src.Fleet = edb.FleetID(ids[0])
		src.RoadClass = edb.RoadClassID(ids[1])
		src.CongestionProfile = edb.CongestionProfileID(ids[2])
		if src.NoLanes, err = r.intval("nolanes"); err != nil {
			return err
		}
		for col, dst := range map[string]*float64{
			"speed":              &src.Speed,
			"width":              &src.Width,
			"median_strip_width": &src.MedianStripWidth,
			"slope":              &src.Slope,
		} {
			if *dst, err = r.floatval(col); err != nil {
				return err
			}
		}
		s.RoadSources = append(s.RoadSources, src)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetSourceEmission, true, func(r *record) error {
		id, err := r.intval("source")
		if err != nil {
			return err
		}
		sub, err := r.intval("substance")
		if err != nil {
			return err
		}
		value, err := r.floatval("value")
		if err != nil {
			return err
		}
		e := edb.SourceSubstanceEmission{Substance: edb.SubstanceID(sub), Value: value}
		switch t := edb.SourceType(r.str("source_type")); t {
		case edb.Point:
			src, ok := pointSources[id]
			if !ok {
				return r.errorf("point source %d is not in sheet %s", id, sheetPointSource)
			}
			src.Emissions = append(src.Emissions, e)
		case edb.Area:
			src, ok := areaSources[id]
			if !ok {
				return r.errorf("area source %d is not in sheet %s", id, sheetAreaSource)
			}
			src.Emissions = append(src.Emissions, e)
		default:
			return r.errorf("invalid source type %q", t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetSourceActivity, true, func(r *record) error {
		id, err := r.intval("source")
		if err != nil {
			return err
		}
		act, err := r.intval("activity")
		if err != nil {
			return err
		}
		rate, err := r.floatval("rate")
		if err != nil {
			return err
		}
		a := edb.SourceActivity{Activity: edb.ActivityID(act), Rate: rate}
		switch t := edb.SourceType(r.str("source_type")); t {
		case edb.Point:
			src, ok := pointSources[id]
			if !ok {
				return r.errorf("point source %d is not in sheet %s", id, sheetPointSource)
			}
			src.Activities = append(src.Activities, a)
		case edb.Area:
			src, ok := areaSources[id]
			if !ok {
				return r.errorf("area source %d is not in sheet %s", id, sheetAreaSource)
			}
			src.Activities = append(src.Activities, a)
		default:
			return r.errorf("invalid source type %q", t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = forEachRecord(f, sheetSettings, true, func(r *record) error {
		switch key := r.str("key"); key {
		case "traffic_work":
			sub, err := s.SubstanceBySlug(r.str("value"))
			if err != nil {
				return r.errorf("%v", err)
			}
			s.TrafficWork = sub.ID
		default:
			return r.errorf("unknown setting %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}
