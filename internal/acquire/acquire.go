// Package acquire turns filings into verified documents on disk. Every
// filing is reserved in the store before it is fetched so a re-run never
// fetches a document twice.
package acquire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fcrawatch/internal/catalog"
	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
	"fcrawatch/internal/components/telemetry"

	"golang.org/x/sync/errgroup"
)

const (
	report_acquire_retry     = "acquire.retry"
	report_acquire_checker   = "acquire.checker"
	report_acquire_request   = "acquire.request"
	report_acquire_completed = "acquire.completed"
	report_acquire_pending   = "acquire.pending"
)

// Fetcher downloads the document of a filing.
type Fetcher interface {
	Fetch(ctx context.Context, registration, year, quarter string) ([]byte, error)
}

// Request is a non-null filing to acquire.
type Request struct {
	Registration string
	Year         string
	Quarter      string
	Sub          catalog.SubKey
	SubID        int64
}

func (r Request) String() string {
	return fmt.Sprintf(
		"%s %s q%s (%s/%s)",
		r.Registration, r.Year, r.Quarter, r.Sub.JurisdictionID, r.Sub.LocalCode,
	)
}

type Outcome int

const (
	// OutcomeSkipped is a filing that already had a document.
	OutcomeSkipped Outcome = iota
	OutcomeOk
	OutcomeBroken
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeOk:
		return "ok"
	case OutcomeBroken:
		return "broken"
	default:
		return "failed"
	}
}

type Options struct {
	// Root is the directory documents are written under.
	Root string
	// MaxAttempts is the total number of fetches for a filing whose
	// document keeps failing the integrity check.
	MaxAttempts int
	RetryDelay  time.Duration
	Workers     int
}

func DefaultOptions() Options {
	return Options{
		Root:        "disclosures",
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		Workers:     4,
	}
}

type Acquirer struct {
	qry     *db.Queries
	makeTx  db.MakeTx
	fetcher Fetcher
	checker Checker
	time    chrono.API
	opts    Options
	tel     telemetry.API
}

func NewAcquirer(
	qry *db.Queries,
	makeTx db.MakeTx,
	fetcher Fetcher,
	checker Checker,
	clock chrono.API,
	opts Options,
	tel telemetry.API,
) Acquirer {
	assert.NotNil(qry)
	assert.NotNil(makeTx)
	assert.NotNil(fetcher)
	assert.NotNil(checker)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Root, "document root")

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return Acquirer{
		qry:     qry,
		makeTx:  makeTx,
		fetcher: fetcher,
		checker: checker,
		time:    clock,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("acquire", tel),
	}
}

// FileName is the name of the document of a file row.
func FileName(fileId int64, registration, year, quarter string) string {
	return fmt.Sprintf("D_%d_%s_%s_%s.pdf", fileId, registration, year, quarter)
}

func (a Acquirer) path(req Request, fileId int64) string {
	return filepath.Join(
		a.opts.Root,
		req.Sub.JurisdictionID,
		req.Sub.LocalCode,
		FileName(fileId, req.Registration, req.Year, req.Quarter),
	)
}

// reserve returns the file row of the request, inserting it with a null
// path if it does not exist yet.
func (a Acquirer) reserve(ctx context.Context, req Request) (db.File, error) {
	tx, discard, commit, err := a.makeTx(ctx)
	if err != nil {
		return db.File{}, failure.Wrap(failure.KindStore, err)
	}
	defer discard()

	key := db.GetFileByKeyParams{
		Fcra:    req.Registration,
		Year:    req.Year,
		Quarter: req.Quarter,
		SubID:   req.SubID,
	}
	file, err := tx.GetFileByKey(ctx, key)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return db.File{}, failure.FromStore(err)
	}

	fileId, err := tx.CreateFile(ctx, db.CreateFileParams{
		Fcra:    req.Registration,
		SubID:   req.SubID,
		Year:    req.Year,
		Quarter: req.Quarter,
	})
	if err != nil {
		return db.File{}, failure.FromStore(err)
	}
	file, err = tx.GetFile(ctx, fileId)
	if err != nil {
		return db.File{}, failure.FromStore(err)
	}

	err = commit()
	if err != nil {
		return db.File{}, failure.FromStore(err)
	}
	return file, nil
}

func writeFile(path string, contents []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	temp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(temp.Name())

	_, err = temp.Write(contents)
	if err != nil {
		temp.Close()
		return err
	}
	err = temp.Close()
	if err != nil {
		return err
	}
	return os.Rename(temp.Name(), path)
}

func (a Acquirer) check(ctx context.Context, path string) db.Integrity {
	integrity, err := a.checker.Check(ctx, path)
	if err != nil {
		// a checker that cannot run says nothing good about the document
		a.tel.ReportBroken(report_acquire_checker, err, path)
		return db.INTEGRITY_BROKEN
	}
	return integrity
}

func (a Acquirer) setIntegrity(ctx context.Context, fileId int64, integrity db.Integrity) error {
	err := a.qry.SetFileIntegrity(ctx, db.SetFileIntegrityParams{
		Integrity: sql.NullString{String: string(integrity), Valid: true},
		FileID:    fileId,
	})
	return failure.FromStore(err)
}

// Acquire reserves, fetches, writes and verifies a single filing. A filing
// whose document keeps failing the check is fetched again up to
// MaxAttempts times in total.
func (a Acquirer) Acquire(ctx context.Context, req Request) (Outcome, error) {
	file, err := a.reserve(ctx, req)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("reserve %s: %w", req, err)
	}
	if file.Path.Valid {
		return OutcomeSkipped, nil
	}
	return a.download(ctx, req, file.FileID)
}

func (a Acquirer) download(ctx context.Context, req Request, fileId int64) (Outcome, error) {
	path := a.path(req, fileId)
	written := false

	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		body, err := a.fetcher.Fetch(ctx, req.Registration, req.Year, req.Quarter)
		if err == nil {
			err = writeFile(path, body)
		}
		if err != nil {
			serr := failure.FromStore(a.qry.SetFileAttempts(ctx, db.SetFileAttemptsParams{
				Attempts: int64(attempt),
				FileID:   fileId,
			}))
			if serr == nil && written {
				// the previous attempt's document stays, it failed its check
				serr = a.setIntegrity(ctx, fileId, db.INTEGRITY_BROKEN)
			}
			if failure.KindOf(serr).Fatal() {
				return OutcomeFailed, serr
			}
			return OutcomeFailed, failure.Wrap(
				failure.KindDownload,
				fmt.Errorf("%s attempt %d: %w", req, attempt, err),
			)
		}

		err = a.qry.SetFilePath(ctx, db.SetFilePathParams{
			Path:         sql.NullString{String: path, Valid: true},
			DownloadedAt: sql.NullInt64{Int64: a.time.Now().Unix(), Valid: true},
			Attempts:     int64(attempt),
			FileID:       fileId,
		})
		if err != nil {
			return OutcomeFailed, fmt.Errorf("record %s: %w", req, failure.FromStore(err))
		}
		written = true

		if a.check(ctx, path) == db.INTEGRITY_OK {
			err = a.setIntegrity(ctx, fileId, db.INTEGRITY_OK)
			if err != nil {
				return OutcomeFailed, fmt.Errorf("record %s: %w", req, err)
			}
			return OutcomeOk, nil
		}

		if attempt < a.opts.MaxAttempts {
			a.tel.ReportWarning(
				report_acquire_retry,
				fmt.Errorf("document is broken, downloading again"),
				path,
				attempt,
			)
			err = a.time.Sleep(ctx, a.opts.RetryDelay)
			if err != nil {
				return OutcomeFailed, err
			}
		}
	}

	err := a.setIntegrity(ctx, fileId, db.INTEGRITY_BROKEN)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("record %s: %w", req, err)
	}
	return OutcomeBroken, failure.Wrap(
		failure.KindIntegrity,
		fmt.Errorf("%s still broken after %d attempts: %s", req, a.opts.MaxAttempts, path),
	)
}

type Stats struct {
	Requested int
	Skipped   int
	Ok        int
	Broken    int
	Failed    int
}

func (s *Stats) add(outcome Outcome) {
	s.Requested++
	switch outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeOk:
		s.Ok++
	case OutcomeBroken:
		s.Broken++
	default:
		s.Failed++
	}
}

// report logs a non-fatal error, expected kinds as warnings and everything
// else as broken.
func (a Acquirer) report(err error, req Request) {
	if failure.KindOf(err).Expected() {
		a.tel.ReportWarning(report_acquire_request, err, req.String())
		return
	}
	a.tel.ReportBroken(report_acquire_request, err, req.String())
}

// AcquireAll acquires every request on a bounded pool. Failures of a single
// request are reported and do not stop the others, only a fatal store error
// (or ctx being done) does.
func (a Acquirer) AcquireAll(ctx context.Context, reqs []Request) (Stats, error) {
	var stats Stats
	var mutex sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.opts.Workers)

	for _, req := range reqs {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			outcome, err := a.Acquire(gctx, req)

			mutex.Lock()
			stats.add(outcome)
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
			a.report(err, req)
			return nil
		})
	}

	err := group.Wait()
	a.tel.ReportCount(report_acquire_completed, int64(stats.Ok))
	if err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

// ResumePending acquires every file row that was reserved but never got a
// document, reusing its file id.
func (a Acquirer) ResumePending(ctx context.Context) (Stats, error) {
	pending, err := a.qry.ListPendingFiles(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list pending files: %w", failure.FromStore(err))
	}
	a.tel.ReportCount(report_acquire_pending, int64(len(pending)))

	reqs := make([]Request, len(pending))
	for i, file := range pending {
		reqs[i] = Request{
			Registration: file.Fcra,
			Year:         file.Year,
			Quarter:      file.Quarter,
			Sub: catalog.SubKey{
				JurisdictionID: file.JurisdictionID,
				LocalCode:      file.LocalCode,
			},
			SubID: file.SubID,
		}
	}
	return a.AcquireAll(ctx, reqs)
}
