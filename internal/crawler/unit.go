package crawler

import (
	"fmt"

	"fcrawatch/internal/catalog"
)

// Unit is one submission of the reporting form.
type Unit struct {
	Year    string
	Quarter string
	Sub     catalog.SubKey
	// SubID is the store id of Sub.
	SubID int64
}

func (u Unit) String() string {
	return fmt.Sprintf(
		"%s q%s jurisdiction %s sub-jurisdiction %s",
		u.Year, u.Quarter, u.Sub.JurisdictionID, u.Sub.LocalCode,
	)
}

// Units enumerates every unit of the catalog: periods first, then
// jurisdictions, then their sub-jurisdictions. Sub-jurisdictions without a
// store id are reported through missing and left out.
func Units(c catalog.Catalog, subIds map[catalog.SubKey]int64, missing func(catalog.SubKey)) []Unit {
	var units []Unit
	for _, period := range c.Periods {
		for _, quarter := range period.Quarters {
			for _, jurisdiction := range c.Jurisdictions {
				for _, sub := range c.SubJurisdictionsOf(jurisdiction.ID) {
					id, ok := subIds[sub.Key]
					if !ok {
						if missing != nil {
							missing(sub.Key)
						}
						continue
					}
					units = append(units, Unit{
						Year:    period.Year,
						Quarter: quarter,
						Sub:     sub.Key,
						SubID:   id,
					})
				}
			}
		}
	}
	return units
}

// Filing is one organization listed in a unit's result table.
type Filing struct {
	Registration string
	Name         string
	// Null is a return declaring no contributions, there is no document to
	// fetch for it.
	Null bool
}

type Result struct {
	Unit    Unit
	Filings []Filing
}

// Pending returns the filings that have a document to fetch.
func (r Result) Pending() []Filing {
	var out []Filing
	for _, f := range r.Filings {
		if !f.Null {
			out = append(out, f)
		}
	}
	return out
}
