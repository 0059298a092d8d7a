// Package model defines the record types shared by the loading, cleaning and
// merging stages of the electricity pipeline.
package model

import (
	"math"
	"slices"
)

// Column names of the tabular contract consumed by downstream code.
const (
	ColProvince    = "Province"
	ColYear        = "Year"
	ColElectricity = "Electricity_GWh"
	ColProvinceGeo = "Province_GeoJSON"
)

// RawRecord is one accepted row of a yearly export before cleaning.
// Value keeps the verbatim cell text; the cleaner owns numeric parsing.
type RawRecord struct {
	Province string `json:"Province" csv:"Province"`
	Year     int    `json:"Year" csv:"Year"`
	Value    string `json:"Electricity_GWh" csv:"Electricity_GWh"`
}

// ConsumptionRecord is a province-year measurement. Value is nil while a
// record is still being cleaned and its cell could not be parsed.
type ConsumptionRecord struct {
	Province string
	Year     int
	Value    *float64
}

// HasValue reports whether the record carries a finite value.
func (r ConsumptionRecord) HasValue() bool {
	return r.Value != nil && !math.IsNaN(*r.Value) && !math.IsInf(*r.Value, 0)
}

// CleanRecord is a validated row of the output contract. ProvinceGeo is set
// once the name mapper has annotated the record.
type CleanRecord struct {
	Province    string  `json:"Province" csv:"Province"`
	Year        int     `json:"Year" csv:"Year"`
	Electricity float64 `json:"Electricity_GWh" csv:"Electricity_GWh"`
	ProvinceGeo *string `json:"Province_GeoJSON,omitempty" csv:"Province_GeoJSON,omitempty"`
}

// Key identifies a province-year pair.
type Key struct {
	Province string
	Year     int
}

// Key returns the province-year key of the record.
func (r CleanRecord) Key() Key {
	return Key{Province: r.Province, Year: r.Year}
}

// GeoName returns the mapped boundary name, or "" when unmapped.
func (r CleanRecord) GeoName() string {
	if r.ProvinceGeo == nil {
		return ""
	}
	return *r.ProvinceGeo
}

// Years returns the distinct years of records in ascending order.
func Years(records []CleanRecord) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range records {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	slices.Sort(years)
	return years
}

// FilterYear returns records for a single year, preserving order.
func FilterYear(records []CleanRecord, year int) []CleanRecord {
	var out []CleanRecord
	for _, r := range records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}
