// Package layouts declares the CSV header layouts found in the daily report
// dataset. Order matters: the registry resolves headers first-match-wins.
package layouts

import (
	"strings"

	"github.com/JonMunkholm/snepalysis/internal/core"
)

// Header signatures, exactly as they appear in the files once non-ASCII bytes
// are removed.
const (
	legacyHeader            = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered,Latitude,Longitude"
	currentHeader           = "FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,Recovered,Active,Combined_Key"
	ratesHeader             = currentHeader + ",Incident_Rate,Case_Fatality_Ratio"
	transitionalRatesHeader = currentHeader + ",Incidence_Rate,Case-Fatality_Ratio"
)

var currentColumns = map[core.Field]string{
	core.FieldCountry:   "Country_Region",
	core.FieldLatitude:  "Lat",
	core.FieldLongitude: "Long_",
	core.FieldState:     "Province_State",
}

// Default returns every known layout, legacy first.
func Default() []core.Layout {
	return []core.Layout{
		Legacy(),
		Current(),
		{Name: "current_rates", Header: split(ratesHeader), Columns: currentColumns},
		{Name: "current_rates_transitional", Header: split(transitionalRatesHeader), Columns: currentColumns},
	}
}

// Legacy is the early layout with Latitude/Longitude columns.
func Legacy() core.Layout {
	return core.Layout{
		Name:   "legacy",
		Header: split(legacyHeader),
		Columns: map[core.Field]string{
			core.FieldCountry:   "Country/Region",
			core.FieldLatitude:  "Latitude",
			core.FieldLongitude: "Longitude",
			core.FieldState:     "Province/State",
		},
	}
}

// Current is the FIPS/Admin2 layout used since the US county breakdown.
func Current() core.Layout {
	return core.Layout{
		Name:    "current",
		Header:  split(currentHeader),
		Columns: currentColumns,
	}
}

func split(header string) []string {
	return strings.Split(header, ",")
}
