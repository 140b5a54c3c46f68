// Package ingest turns downloaded documents into donor records.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
	"fcrawatch/internal/components/telemetry"

	"golang.org/x/sync/errgroup"
)

const (
	report_ingest_file    = "ingest.file"
	report_ingest_row     = "ingest.row"
	report_ingest_records = "ingest.records"
)

type Options struct {
	Workers int
	// Force ingests documents that were already ingested again, rows that
	// already exist are left alone.
	Force bool
}

func DefaultOptions() Options {
	return Options{Workers: 2}
}

type Ingestor struct {
	qry    *db.Queries
	reader TableReader
	time   chrono.API
	opts   Options
	tel    telemetry.API
}

func NewIngestor(qry *db.Queries, reader TableReader, clock chrono.API, opts Options, tel telemetry.API) Ingestor {
	assert.NotNil(qry)
	assert.NotNil(reader)
	assert.NotNil(clock)
	assert.NotNil(tel)

	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return Ingestor{
		qry:    qry,
		reader: reader,
		time:   clock,
		opts:   opts,
		tel:    telemetry.NewScopedAPI("ingest", tel),
	}
}

type FileOutcome int

const (
	FileIngested FileOutcome = iota
	FileSkipped
	FileFailed
)

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IngestFile writes the donor records of one document. Every record is
// committed on its own, the file is only marked as ingested once all of
// them were written.
func (i Ingestor) IngestFile(ctx context.Context, path string) (FileOutcome, int, error) {
	key, file, err := identify(ctx, i.qry, path)
	if err != nil {
		return FileFailed, 0, err
	}
	if file.IngestedAt.Valid && !i.opts.Force {
		return FileSkipped, 0, nil
	}

	result, err := readDocument(ctx, i.reader, key, path)
	if err != nil {
		return FileFailed, 0, err
	}

	written := 0
	failed := 0
	for index, row := range result.Rows {
		err = i.qry.CreateDisclosure(ctx, db.CreateDisclosureParams{
			FileID:       key.FileID,
			RowIndex:     int64(index),
			DonorName:    nullable(row[1]),
			DonorType:    nullable(row[2]),
			DonorAddress: nullable(row[3]),
			Purpose:      nullable(row[4]),
			Amount:       nullable(row[5]),
		})
		err = failure.FromStore(err)
		if failure.KindOf(err).Fatal() {
			return FileFailed, written, fmt.Errorf("%s row %d: %w", path, index, err)
		}
		if err != nil {
			failed++
			i.tel.ReportWarning(report_ingest_row, err, path, index)
			continue
		}
		written++
	}
	if failed > 0 {
		return FileFailed, written, failure.New(
			failure.KindSchemaViolation,
			"%s: %d of %d rows could not be written", path, failed, len(result.Rows),
		)
	}

	err = i.qry.SetFileIngested(ctx, db.SetFileIngestedParams{
		IngestedAt: sql.NullInt64{Int64: i.time.Now().Unix(), Valid: true},
		FileID:     key.FileID,
	})
	if err != nil {
		return FileFailed, written, fmt.Errorf("%s: %w", path, failure.FromStore(err))
	}
	return FileIngested, written, nil
}

// FindDocuments lists every .pdf below root in lexical order.
func FindDocuments(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find documents in %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}

type Stats struct {
	Files    int
	Ingested int
	Skipped  int
	Failed   int
	Records  int
}

// IngestDir ingests every document below root on a bounded pool. A document
// that fails is reported with its path, only a fatal store error (or ctx
// being done) stops the others.
func (i Ingestor) IngestDir(ctx context.Context, root string) (Stats, error) {
	paths, err := FindDocuments(root)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var mutex sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(i.opts.Workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			outcome, records, err := i.IngestFile(gctx, path)

			mutex.Lock()
			stats.Files++
			stats.Records += records
			switch outcome {
			case FileIngested:
				stats.Ingested++
			case FileSkipped:
				stats.Skipped++
			default:
				stats.Failed++
			}
			mutex.Unlock()

			if err == nil {
				return nil
			}
			if failure.KindOf(err).Fatal() {
				return err
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if failure.KindOf(err).Expected() {
				i.tel.ReportWarning(report_ingest_file, err, path)
			} else {
				i.tel.ReportBroken(report_ingest_file, err, path)
			}
			return nil
		})
	}

	err = group.Wait()
	i.tel.ReportCount(report_ingest_records, int64(stats.Records))
	if err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}
