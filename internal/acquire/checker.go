package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"fcrawatch/internal/components/db"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Checker decides whether a downloaded document is intact. An error means
// the check itself could not run.
type Checker interface {
	Check(ctx context.Context, path string) (db.Integrity, error)
}

// ScriptChecker runs an external command with the document path appended to
// its arguments. It is broken when the command prints "broken" or exits
// with a non-zero status.
type ScriptChecker struct {
	Command string
	Args    []string
}

func (c ScriptChecker) Check(ctx context.Context, path string) (db.Integrity, error) {
	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return db.INTEGRITY_BROKEN, nil
	}
	if err != nil {
		return "", fmt.Errorf("run %s: %w", c.Command, err)
	}

	if strings.TrimSpace(stdout.String()) == string(db.INTEGRITY_BROKEN) {
		return db.INTEGRITY_BROKEN, nil
	}
	return db.INTEGRITY_OK, nil
}

// PdfcpuChecker validates the document in-process.
type PdfcpuChecker struct {
	config *model.Configuration
}

func NewPdfcpuChecker(strict bool) PdfcpuChecker {
	// keeps pdfcpu from creating its config directory under the user's home
	model.ConfigPath = "disable"

	config := model.NewDefaultConfiguration()
	config.ValidationMode = model.ValidationRelaxed
	if strict {
		config.ValidationMode = model.ValidationStrict
	}
	return PdfcpuChecker{config: config}
}

func (c PdfcpuChecker) Check(ctx context.Context, path string) (db.Integrity, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// validation writes to its configuration
	config := *c.config
	err := api.ValidateFile(path, &config)
	if err != nil {
		return db.INTEGRITY_BROKEN, nil
	}
	return db.INTEGRITY_OK, nil
}
