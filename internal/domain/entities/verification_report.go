package entities

// VerificationReport is the condensed result of a PR verify report
type VerificationReport struct {
	Path         string
	SummaryLine  string // last non-empty line
	Hash         string // sha256 of all right-trimmed lines joined without separator
	ExpectedName string
	Passed       bool
	Ignored      bool
}

// IgnoredReport is used when verification was deliberately skipped
func IgnoredReport() *VerificationReport {
	return &VerificationReport{
		SummaryLine: IgnoreKey,
		Hash:        IgnoreReportHash,
		Passed:      true,
		Ignored:     true,
	}
}
