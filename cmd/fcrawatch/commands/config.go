package commands

import (
	"time"

	"fcrawatch/internal/acquire"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/internal/crawler"
	"fcrawatch/internal/ingest"
	"fcrawatch/internal/scrapers/fcra"
	"fcrawatch/pkg/migrations"
)

type CrawlConfig struct {
	SettleMillis       int     `json:"settle_millis"`
	BackoffSeconds     int     `json:"backoff_seconds"`
	NameDriftThreshold float64 `json:"name_drift_threshold"`
}

type AcquireConfig struct {
	MaxAttempts       int `json:"max_attempts"`
	RetryDelaySeconds int `json:"retry_delay_seconds"`
	Workers           int `json:"workers"`
}

type IngestConfig struct {
	Workers int `json:"workers"`
}

type CheckerConfig struct {
	// Kind is either "script" or "pdfcpu".
	Kind    string   `json:"kind"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	// Strict makes the pdfcpu checker use strict validation.
	Strict bool `json:"strict"`
}

type Config struct {
	Database       migrations.Config    `json:"database"`
	DisclosuresDir string               `json:"disclosures_dir"`
	CacheDir       string               `json:"cache_dir"`
	CacheTtlHours  int                  `json:"cache_ttl_hours"`
	Location       string               `json:"location"`
	LogFile        string               `json:"log_file"`
	Form           fcra.FormConfig      `json:"form"`
	Documents      fcra.DocumentsConfig `json:"documents"`
	Crawl          CrawlConfig          `json:"crawl"`
	Acquire        AcquireConfig        `json:"acquire"`
	Ingest         IngestConfig         `json:"ingest"`
	Checker        CheckerConfig        `json:"checker"`
	Tabula         ingest.TabulaConfig  `json:"tabula"`
	Otlp           telemetry.OtlpConfig `json:"otlp"`
}

func DefaultConfig() Config {
	crawlOpts := crawler.DefaultOptions()
	acquireOpts := acquire.DefaultOptions()

	return Config{
		Database:       migrations.Config{File: "fcra.db"},
		DisclosuresDir: acquireOpts.Root,
		CacheDir:       ".cache/catalog",
		CacheTtlHours:  24 * 7,
		Location:       "Asia/Kolkata",
		Form:           fcra.DefaultFormConfig(),
		Documents:      fcra.DefaultDocumentsConfig(),
		Crawl: CrawlConfig{
			SettleMillis:       int(crawlOpts.Settle / time.Millisecond),
			BackoffSeconds:     int(crawlOpts.Backoff / time.Second),
			NameDriftThreshold: crawlOpts.NameDriftThreshold,
		},
		Acquire: AcquireConfig{
			MaxAttempts:       acquireOpts.MaxAttempts,
			RetryDelaySeconds: int(acquireOpts.RetryDelay / time.Second),
			Workers:           acquireOpts.Workers,
		},
		Ingest:  IngestConfig{Workers: ingest.DefaultOptions().Workers},
		Checker: CheckerConfig{Kind: "script", Command: "scripts/verify_pdf.sh"},
		Tabula:  ingest.DefaultTabulaConfig(),
	}
}

func (c Config) crawlOptions() crawler.Options {
	return crawler.Options{
		Settle:             time.Duration(c.Crawl.SettleMillis) * time.Millisecond,
		Backoff:            time.Duration(c.Crawl.BackoffSeconds) * time.Second,
		NameDriftThreshold: c.Crawl.NameDriftThreshold,
	}
}

func (c Config) acquireOptions() acquire.Options {
	return acquire.Options{
		Root:        c.DisclosuresDir,
		MaxAttempts: c.Acquire.MaxAttempts,
		RetryDelay:  time.Duration(c.Acquire.RetryDelaySeconds) * time.Second,
		Workers:     c.Acquire.Workers,
	}
}

func (c Config) checker() acquire.Checker {
	if c.Checker.Kind == "pdfcpu" {
		return acquire.NewPdfcpuChecker(c.Checker.Strict)
	}
	return acquire.ScriptChecker{Command: c.Checker.Command, Args: c.Checker.Args}
}
