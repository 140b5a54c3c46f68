package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// TableReader extracts the single logical table spanning every page of a
// document, one []string per row.
type TableReader interface {
	ReadTable(ctx context.Context, path string) ([][]string, error)
}

type TabulaConfig struct {
	Java string `json:"java"`
	Jar  string `json:"jar"`
	// Columns are the x coordinates (in points) of the column boundaries.
	Columns []float64 `json:"columns"`
	Pages   string    `json:"pages"`
	// Lattice makes tabula use ruling lines to find cells.
	Lattice bool `json:"lattice"`
}

func DefaultTabulaConfig() TabulaConfig {
	return TabulaConfig{
		Java:    "java",
		Jar:     "tabula.jar",
		Columns: []float64{49.57, 132.1, 214.52, 298.1, 380.65, 462.4},
		Pages:   "all",
		Lattice: true,
	}
}

// TabulaReader runs the tabula command line and parses its CSV output.
type TabulaReader struct {
	config TabulaConfig
}

func NewTabulaReader(config TabulaConfig) TabulaReader {
	return TabulaReader{config: config}
}

func (r TabulaReader) args(path string) []string {
	columns := make([]string, len(r.config.Columns))
	for i, c := range r.config.Columns {
		columns[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}

	args := []string{"-jar", r.config.Jar, "--format", "CSV", "--silent"}
	if r.config.Pages != "" {
		args = append(args, "--pages", r.config.Pages)
	}
	if len(columns) > 0 {
		args = append(args, "--columns", strings.Join(columns, ","))
	}
	if r.config.Lattice {
		args = append(args, "--lattice")
	}
	return append(args, path)
}

func (r TabulaReader) ReadTable(ctx context.Context, path string) ([][]string, error) {
	cmd := exec.CommandContext(ctx, r.config.Java, r.args(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("tabula: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseCSV(stdout.Bytes())
}

// ParseCSV reads tabula's CSV output, rows may have different widths.
func ParseCSV(contents []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(contents))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse tabula output: %w", err)
	}
	return rows, nil
}
