package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fcrawatch/internal/acquire"
	"fcrawatch/internal/catalog"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/pkg/migrations"

	"github.com/stretchr/testify/require"
)

// mapReader serves tables by document base name.
type mapReader map[string][][]string

func (m mapReader) ReadTable(ctx context.Context, path string) ([][]string, error) {
	table, ok := m[filepath.Base(path)]
	if !ok {
		return nil, errors.New("tabula: no tables found")
	}
	return table, nil
}

type fixture struct {
	qry   *db.Queries
	tel   *telemetry.RecordingAPI
	root  string
	subId int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	sqldb, err := migrations.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	require.NoError(t, migrations.Migrate(sqldb, db.Schema))

	sub := catalog.SubKey{JurisdictionID: "29", LocalCode: "572"}
	ids, err := catalog.Seed(ctx, db.NewMakeTx(sqldb), catalog.Catalog{
		Jurisdictions:    catalog.Jurisdictions{{ID: "29", Name: "KARNATAKA"}},
		SubJurisdictions: catalog.SubJurisdictions{{Key: sub, Name: "BANGALORE"}},
	})
	require.NoError(t, err)

	qry := db.New(sqldb)
	require.NoError(t, qry.CreateOrganization(ctx, db.CreateOrganizationParams{Fcra: "094421102", Name: "SAMPLE TRUST"}))

	return fixture{
		qry:   qry,
		tel:   telemetry.NewRecordingAPI(),
		root:  t.TempDir(),
		subId: ids[sub],
	}
}

// document reserves a file row and writes an (empty) document for it.
func (f fixture) document(t *testing.T, quarter string) string {
	t.Helper()
	fileId, err := f.qry.CreateFile(context.Background(), db.CreateFileParams{
		Fcra:    "094421102",
		SubID:   f.subId,
		Year:    "2015-2016",
		Quarter: quarter,
	})
	require.NoError(t, err)

	path := filepath.Join(f.root, "29", "572", acquire.FileName(fileId, "094421102", "2015-2016", quarter))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
	return path
}

func (f fixture) ingestor(reader TableReader, opts Options) Ingestor {
	return NewIngestor(f.qry, reader, chrono.NewFakeImpl(time.Unix(1700000000, 0)), opts, f.tel)
}

var header = []string{"S.No.", "Name of Donor", "Type", "Address", "Purpose", "Amount (Rs.)"}

func TestTwoRowTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.document(t, "1")

	reader := mapReader{filepath.Base(path): {
		{"1", "JOHN DOE", "Individual", "12 HIGH ST\rLONDON", "Education", "1000.00"},
		{"2", "ACME FOUNDATION", "Institutional", "NEW YORK", "Relief", "250.50"},
	}}
	outcome, records, err := f.ingestor(reader, DefaultOptions()).IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, FileIngested, outcome)
	require.Equal(t, 2, records)

	key, err := ParseFileName(path)
	require.NoError(t, err)
	disclosures, err := f.qry.ListDisclosuresForFile(ctx, key.FileID)
	require.NoError(t, err)
	require.Len(t, disclosures, 2)
	for _, d := range disclosures {
		require.Equal(t, key.FileID, d.FileID)
	}
	require.Equal(t, "JOHN DOE", disclosures[0].DonorName.String)
	require.Equal(t, "12 HIGH ST LONDON", disclosures[0].DonorAddress.String)
	require.Equal(t, "250.50", disclosures[1].Amount.String)

	file, err := f.qry.GetFile(ctx, key.FileID)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), file.IngestedAt.Int64)
}

func TestWrongWidthIsNoData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.document(t, "1")

	reader := mapReader{filepath.Base(path): {
		{"1", "JOHN DOE", "Individual", "LONDON", "1000.00"},
	}}
	outcome, _, err := f.ingestor(reader, DefaultOptions()).IngestFile(ctx, path)
	require.Equal(t, FileFailed, outcome)
	require.Equal(t, failure.KindNoData, failure.KindOf(err))

	counts, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)
	require.Zero(t, counts.Disclosures)
	require.Zero(t, counts.Ingested)
}

func TestHeaderRowsAreDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.document(t, "1")

	reader := mapReader{filepath.Base(path): {
		header,
		{"1", "JOHN DOE", "Individual", "LONDON", "Education", "1000.00"},
		// repeated on every page
		header,
		{"", "", "", "", "Main Purpose", ""},
		{"2", "JANE DOE", "Individual", "PARIS", "Health", "10.00"},
	}}
	_, records, err := f.ingestor(reader, DefaultOptions()).IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, records)

	key, err := ParseFileName(path)
	require.NoError(t, err)
	disclosures, err := f.qry.ListDisclosuresForFile(ctx, key.FileID)
	require.NoError(t, err)
	for _, d := range disclosures {
		require.NotContains(t, d.Purpose.String, "Purpose")
		require.NotContains(t, d.Amount.String, "Amount")
	}
}

func TestNameMustMatchFileRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.document(t, "1")

	renamed := filepath.Join(filepath.Dir(path), "D_1_094421102_2015-2016_3.pdf")
	require.NoError(t, os.Rename(path, renamed))

	_, _, err := f.ingestor(mapReader{}, DefaultOptions()).IngestFile(ctx, renamed)
	require.Equal(t, failure.KindParse, failure.KindOf(err))

	_, _, err = f.ingestor(mapReader{}, DefaultOptions()).IngestFile(ctx, filepath.Join(f.root, "D_77_094421102_2015-2016_1.pdf"))
	require.Equal(t, failure.KindParse, failure.KindOf(err))
}

func TestReingest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.document(t, "1")

	reader := mapReader{filepath.Base(path): {
		{"1", "JOHN DOE", "Individual", "LONDON", "Education", "1000.00"},
	}}

	outcome, _, err := f.ingestor(reader, DefaultOptions()).IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, FileIngested, outcome)

	outcome, _, err = f.ingestor(reader, DefaultOptions()).IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, FileSkipped, outcome)

	outcome, _, err = f.ingestor(reader, Options{Force: true}).IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, FileIngested, outcome)

	counts, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts.Disclosures)
}

func TestIngestDir(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	good := f.document(t, "1")
	empty := f.document(t, "2")
	unreadable := f.document(t, "3")
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "notes.txt"), []byte("not a document"), 0644))

	reader := mapReader{
		filepath.Base(good):  {{"1", "JOHN DOE", "Individual", "LONDON", "Education", "1000.00"}},
		filepath.Base(empty): {},
	}
	stats, err := f.ingestor(reader, Options{Workers: 2}).IngestDir(ctx, f.root)
	require.NoError(t, err)
	require.Equal(t, Stats{Files: 3, Ingested: 1, Failed: 2, Records: 1}, stats)

	warnings := f.tel.Find(telemetry.LevelWarning, report_ingest_file)
	require.Len(t, warnings, 2)
	paths := []any{warnings[0].Params[1], warnings[1].Params[1]}
	require.ElementsMatch(t, []any{empty, unreadable}, paths)
	for _, w := range warnings {
		require.Equal(t, failure.KindNoData, failure.KindOf(w.Params[0].(error)))
	}
}

func TestCleanTable(t *testing.T) {
	rows, err := CleanTable([][]string{
		{"1", "A", "Individual", "line\r\nbreak", "Education", "5.00"},
		{"2", "B", "Individual"},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"1", "A", "Individual", "line break", "Education", "5.00"},
		{"2", "B", "Individual", "", "", ""},
	}, rows)

	_, err = CleanTable(nil)
	require.Equal(t, failure.KindNoData, failure.KindOf(err))

	_, err = CleanTable([][]string{{"1", "2", "3", "4", "5", "6", "7"}})
	require.Equal(t, failure.KindNoData, failure.KindOf(err))
}

func TestParseFileName(t *testing.T) {
	key, err := ParseFileName("/data/disclosures/29/572/D_12_094421102_2015-2016_4.pdf")
	require.NoError(t, err)
	require.Equal(t, FileKey{FileID: 12, Registration: "094421102", Year: "2015-2016", Quarter: "4"}, key)

	for _, name := range []string{
		"D_094421102_2015-2016_4.pdf",
		"D_x_094421102_2015-2016_4.pdf",
		"D_12_094421102_2015-2016_4.PDF.bak",
		"report.pdf",
	} {
		_, err := ParseFileName(name)
		require.Equal(t, failure.KindParse, failure.KindOf(err), name)
	}
}
