package gateways

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// maxReportLine bounds a single report line; place-and-route reports can
// contain very long net listings
const maxReportLine = 16 * 1024 * 1024

// ReportParser reads PR verify reports produced by the place-and-route tool
type ReportParser struct{}

// NewReportParser creates a new report parser
func NewReportParser() *ReportParser {
	return &ReportParser{}
}

// ParseReport condenses a report into its summary line, content hash and verdict.
// The hash covers all right-trimmed lines joined without a separator, so CRLF and
// LF variants of the same report hash identically.
func (p *ReportParser) ParseReport(ctx context.Context, path, expectedName string) (*entities.VerificationReport, error) {
	if path == entities.IgnoreKey {
		return entities.IgnoredReport(), nil
	}

	//nolint:gosec // G304: report path is chosen by the build flow
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &entities.NotFoundError{Path: path}
		}
		return nil, &entities.IOError{Op: "open", Path: path, Err: err}
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxReportLine)
	scanner.Split(scanUniversalLines)

	var joined strings.Builder
	var summary string
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRightFunc(scanner.Text(), isTrailingSpace)
		joined.WriteString(line)
		if line != "" {
			summary = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	return &entities.VerificationReport{
		Path:         path,
		SummaryLine:  summary,
		Hash:         HashString(joined.String()),
		ExpectedName: expectedName,
		Passed:       ReportPassed(summary, expectedName),
	}, nil
}

// ReportPassed is the textual pass check: the summary line must name the
// expected base design file
func ReportPassed(summary, expectedName string) bool {
	return expectedName != "" && strings.Contains(summary, expectedName)
}

// scanUniversalLines splits on \n, \r\n and a lone \r
func scanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// lone \r or \r\n; need one more byte to tell them apart
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// isTrailingSpace matches the whitespace set stripped from report lines,
// including the ASCII separator controls 0x1c-0x1f
func isTrailingSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
