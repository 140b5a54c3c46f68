package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
)

// TableWidth is the number of columns of a donor table:
// index, donor name, donor type, donor address, purpose, amount.
const TableWidth = 6

var fileNameRegex = regexp.MustCompile(`^D_(\d+)_([^_]+)_([^_]+)_([^_]+)\.pdf$`)

type FileKey struct {
	FileID       int64
	Registration string
	Year         string
	Quarter      string
}

// ParseFileName reads the key out of a D_<file_id>_<reg>_<year>_<quarter>.pdf
// document name.
func ParseFileName(path string) (FileKey, error) {
	groups := fileNameRegex.FindStringSubmatch(filepath.Base(path))
	if groups == nil {
		return FileKey{}, failure.New(failure.KindParse, "unexpected document name '%s'", filepath.Base(path))
	}
	fileId, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return FileKey{}, failure.Wrap(failure.KindParse, fmt.Errorf("file id: %w", err))
	}
	return FileKey{
		FileID:       fileId,
		Registration: groups[2],
		Year:         groups[3],
		Quarter:      groups[4],
	}, nil
}

type TableResult struct {
	FileKey
	// Rows are the cleaned data rows, TableWidth cells each.
	Rows [][]string
}

// identify resolves the file row owning the document at path.
func identify(ctx context.Context, qry *db.Queries, path string) (FileKey, db.File, error) {
	key, err := ParseFileName(path)
	if err != nil {
		return FileKey{}, db.File{}, err
	}

	file, err := qry.GetFile(ctx, key.FileID)
	if errors.Is(err, sql.ErrNoRows) {
		return FileKey{}, db.File{}, failure.New(failure.KindParse, "no file row %d", key.FileID)
	}
	if err != nil {
		return FileKey{}, db.File{}, failure.FromStore(err)
	}
	if file.Fcra != key.Registration || file.Year != key.Year || file.Quarter != key.Quarter {
		return FileKey{}, db.File{}, failure.New(
			failure.KindParse,
			"document name does not match file row %d (%s %s q%s)",
			file.FileID, file.Fcra, file.Year, file.Quarter,
		)
	}
	return key, file, nil
}

func cleanCell(cell string) string {
	cell = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(cell)
	return strings.TrimSpace(cell)
}

func isHeader(row []string) bool {
	return strings.Contains(row[4], "Purpose") || strings.Contains(row[5], "Amount")
}

// CleanTable checks the shape of an extracted table and returns its data
// rows. A table that is empty or not TableWidth columns wide is KindNoData.
func CleanTable(table [][]string) ([][]string, error) {
	width := 0
	for _, row := range table {
		width = max(width, len(row))
	}
	if len(table) == 0 {
		return nil, failure.New(failure.KindNoData, "empty table")
	}
	if width != TableWidth {
		return nil, failure.New(failure.KindNoData, "table has %d columns, expected %d", width, TableWidth)
	}

	rows := [][]string{}
	for _, raw := range table {
		row := make([]string, TableWidth)
		for i, cell := range raw {
			row[i] = cleanCell(cell)
		}
		if isHeader(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDocument extracts the donor rows of the document at path.
func ParseDocument(ctx context.Context, qry *db.Queries, reader TableReader, path string) (TableResult, error) {
	key, _, err := identify(ctx, qry, path)
	if err != nil {
		return TableResult{}, err
	}
	return readDocument(ctx, reader, key, path)
}

func readDocument(ctx context.Context, reader TableReader, key FileKey, path string) (TableResult, error) {
	table, err := reader.ReadTable(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return TableResult{}, ctx.Err()
		}
		return TableResult{}, failure.Wrap(failure.KindNoData, err)
	}
	rows, err := CleanTable(table)
	if err != nil {
		return TableResult{}, err
	}
	return TableResult{FileKey: key, Rows: rows}, nil
}
