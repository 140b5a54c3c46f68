package catalog

import (
	"context"
	"fmt"

	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
)

// Seed upserts the jurisdictions and sub-jurisdictions of the catalog and
// returns the store id of every sub-jurisdiction.
func Seed(ctx context.Context, makeTx db.MakeTx, catalog Catalog) (map[SubKey]int64, error) {
	seedError := func(err error) error {
		return fmt.Errorf("seed catalog: %w", failure.FromStore(err))
	}

	tx, discard, commit, err := makeTx(ctx)
	if err != nil {
		return nil, seedError(err)
	}
	defer discard()

	for _, jurisdiction := range catalog.Jurisdictions {
		err = tx.UpsertJurisdiction(ctx, db.UpsertJurisdictionParams{
			JurisdictionID: jurisdiction.ID,
			Name:           jurisdiction.Name,
		})
		if err != nil {
			return nil, seedError(err)
		}
	}

	ids := make(map[SubKey]int64, len(catalog.SubJurisdictions))
	for _, sub := range catalog.SubJurisdictions {
		id, err := tx.UpsertSubJurisdiction(ctx, db.UpsertSubJurisdictionParams{
			JurisdictionID: sub.Key.JurisdictionID,
			LocalCode:      sub.Key.LocalCode,
			Name:           sub.Name,
		})
		if err != nil {
			return nil, seedError(fmt.Errorf("%s/%s: %w", sub.Key.JurisdictionID, sub.Key.LocalCode, err))
		}
		ids[sub.Key] = id
	}

	err = commit()
	if err != nil {
		return nil, seedError(err)
	}
	return ids, nil
}

// SubJurisdictionIds loads the store id of every known sub-jurisdiction.
func SubJurisdictionIds(ctx context.Context, qry *db.Queries) (map[SubKey]int64, error) {
	subs, err := qry.ListSubJurisdictions(ctx)
	if err != nil {
		return nil, failure.FromStore(err)
	}
	ids := make(map[SubKey]int64, len(subs))
	for _, sub := range subs {
		ids[SubKey{JurisdictionID: sub.JurisdictionID, LocalCode: sub.LocalCode}] = sub.SubID
	}
	return ids, nil
}
