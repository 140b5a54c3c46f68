// Package catalog enumerates what the reporting form offers: the filing
// periods, the jurisdictions and their sub-jurisdictions.
package catalog

import "slices"

type FilingPeriod struct {
	Year     string
	Quarters []string
}

type Jurisdiction struct {
	ID   string
	Name string
}

type Jurisdictions []Jurisdiction

// Map returns jurisdiction_id -> name.
func (j Jurisdictions) Map() map[string]string {
	out := make(map[string]string, len(j))
	for _, jurisdiction := range j {
		out[jurisdiction.ID] = jurisdiction.Name
	}
	return out
}

// SubKey identifies a sub-jurisdiction, local codes are only unique within
// their jurisdiction.
type SubKey struct {
	JurisdictionID string
	LocalCode      string
}

type SubJurisdiction struct {
	Key  SubKey
	Name string
}

type SubJurisdictions []SubJurisdiction

// Map returns local_code -> name, only meaningful for the sub-jurisdictions
// of a single jurisdiction.
func (s SubJurisdictions) Map() map[string]string {
	out := make(map[string]string, len(s))
	for _, sub := range s {
		out[sub.Key.LocalCode] = sub.Name
	}
	return out
}

// Catalog is the flat result of a discovery walk, everything is kept in the
// order the form lists it.
type Catalog struct {
	Periods          []FilingPeriod
	Jurisdictions    Jurisdictions
	SubJurisdictions SubJurisdictions
}

func (c Catalog) SubJurisdictionsOf(jurisdictionId string) SubJurisdictions {
	var out SubJurisdictions
	for _, sub := range c.SubJurisdictions {
		if sub.Key.JurisdictionID == jurisdictionId {
			out = append(out, sub)
		}
	}
	return out
}

// Filter restricts the catalog to the given jurisdictions and years, an
// empty list keeps everything.
func (c Catalog) Filter(jurisdictionIds, years []string) Catalog {
	keepJurisdiction := func(id string) bool {
		return len(jurisdictionIds) == 0 || slices.Contains(jurisdictionIds, id)
	}

	out := Catalog{}
	for _, period := range c.Periods {
		if len(years) == 0 || slices.Contains(years, period.Year) {
			out.Periods = append(out.Periods, period)
		}
	}
	for _, jurisdiction := range c.Jurisdictions {
		if keepJurisdiction(jurisdiction.ID) {
			out.Jurisdictions = append(out.Jurisdictions, jurisdiction)
		}
	}
	for _, sub := range c.SubJurisdictions {
		if keepJurisdiction(sub.Key.JurisdictionID) {
			out.SubJurisdictions = append(out.SubJurisdictions, sub)
		}
	}
	return out
}
