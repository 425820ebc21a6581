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
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"github.com/spatialmodel/eminv/edb"
	"github.com/spatialmodel/eminv/emissions"
)

func substanceSlug(s *edb.Snapshot, id edb.SubstanceID) string {
	if sub, ok := s.Substances[id]; ok {
		return sub.Slug
	}
	return fmt.Sprintf("substance_%d", id)
}

// WriteTotalsCSV writes the aggregated totals as CSV, converting rates
// from kg/s to the named output units.
func WriteTotalsCSV(w io.Writer, s *edb.Snapshot, t *emissions.Totals, units string) error {
	factor, err := OutputConversion(units)
	if err != nil {
		return err
	}
	if units == "" {
		units = "kg/s"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"substance", "code1", "code2", "code3", "emission (" + units + ")"}); err != nil {
		return err
	}
	code := func(id edb.ActivityCodeID) string {
		if id == 0 {
			return ""
		}
		if ac, ok := s.ActivityCodes[id]; ok {
			return ac.Code
		}
		return strconv.Itoa(int(id))
	}
	for _, k := range t.Keys() {
		rec := []string{
			substanceSlug(s, k.Substance),
			code(k.AC1), code(k.AC2), code(k.AC3),
			strconv.FormatFloat(t.Sum(k).Value()*factor, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSourceCSV writes per-source emission rows as CSV, converting
// rates from kg/s to the named output units.
func WriteSourceCSV(w io.Writer, s *edb.Snapshot, rows []emissions.SourceEmissionRow, units string) error {
	factor, err := OutputConversion(units)
	if err != nil {
		return err
	}
	if units == "" {
		units = "kg/s"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source_type", "source", "name", "substance", "emission (" + units + ")"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			string(r.SourceType),
			strconv.Itoa(r.SourceID),
			r.SourceName,
			substanceSlug(s, r.Substance),
			strconv.FormatFloat(r.Rate.Value()*factor, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRoadCSV writes per-road emission rows as CSV, converting rates
// from kg/s to the named output units.
func WriteRoadCSV(w io.Writer, s *edb.Snapshot, rows []emissions.RoadEmissionRow, units string) error {
	factor, err := OutputConversion(units)
	if err != nil {
		return err
	}
	if units == "" {
		units = "kg/s"
	}
	cw := csv.NewWriter(w)
	header := []string{"source", "name", "vehicle", "substance", "emission (" + units + ")",
		"aadt", "heavy_share", "nolanes", "speed", "width", "drivable_width", "slope"}
	if err := cw.Write(header); err != nil {
		return err
	}
	vehicle := func(id edb.VehicleID) string {
		if v, ok := s.Vehicles[id]; ok {
			return v.Name
		}
		return strconv.Itoa(int(id))
	}
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.SourceID),
			r.SourceName,
			vehicle(r.Vehicle),
			substanceSlug(s, r.Substance),
			g(r.Rate.Value() * factor),
			g(r.AADT), g(r.HeavyShare), strconv.Itoa(r.NoLanes),
			g(r.Speed), g(r.Width), g(r.DrivableWidth), g(r.Slope),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// dbfName shortens a substance slug to a valid dBASE column name.
func dbfName(slug string) string {
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, slug)
	if len(slug) > 10 {
		slug = slug[:10]
	}
	return slug
}

// WriteRoadShapefile writes road emission rows to a shapefile, with one
// polyline record per road source and vehicle type and one attribute
// column per substance. Rates are converted from kg/s to the named
// output units.
func WriteRoadShapefile(fileName string, s *edb.Snapshot, rows []emissions.RoadEmissionRow, units string) error {
	factor, err := OutputConversion(units)
	if err != nil {
		return err
	}

	subIDs := make(map[edb.SubstanceID]struct{})
	for _, r := range rows {
		subIDs[r.Substance] = struct{}{}
	}
	slugs := make([]string, 0, len(subIDs))
	slugFor := make(map[edb.SubstanceID]string, len(subIDs))
	for id := range subIDs {
		slug := dbfName(substanceSlug(s, id))
		slugFor[id] = slug
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	col := make(map[string]int, len(slugs))
	for i, slug := range slugs {
		col[slug] = i
	}

	fields := []goshp.Field{
		goshp.NumberField("source", 16),
		goshp.NumberField("vehicle", 16),
		goshp.FloatField("aadt", 14, 2),
		goshp.FloatField("heavyshare", 14, 8),
	}
	for _, slug := range slugs {
		fields = append(fields, goshp.FloatField(slug, 14, 8))
	}

	fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".shp"
	shape, err := shp.NewEncoderFromFields(fileName, goshp.POLYLINE, fields...)
	if err != nil {
		return fmt.Errorf("eminvutil: creating output shapefile: %v", err)
	}
	defer shape.Close()

	// One record per (source, vehicle); rows are sorted that way.
	for i := 0; i < len(rows); {
		j := i
		vals := make([]float64, len(slugs))
		for ; j < len(rows) && rows[j].SourceID == rows[i].SourceID && rows[j].Vehicle == rows[i].Vehicle; j++ {
			vals[col[slugFor[rows[j].Substance]]] += rows[j].Rate.Value() * factor
		}
		r := rows[i]
		outFields := []interface{}{r.SourceID, int(r.Vehicle), r.AADT, r.HeavyShare}
		for _, v := range vals {
			outFields = append(outFields, v)
		}
		if err := shape.EncodeFields(r.Geom, outFields...); err != nil {
			return fmt.Errorf("eminvutil: writing output shapefile: %v", err)
		}
		i = j
	}
	return nil
}
