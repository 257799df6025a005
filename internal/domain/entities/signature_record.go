package entities

// Field values used by signature records
const (
	AlgorithmHC1 = "hc1" // hash concat version 1

	SigFileExtension = ".sig"
	AdminSigFileName = "admin.sig"

	// DetachedSigExtension names the optional OpenPGP signature over a record
	DetachedSigExtension = ".asc"

	VerifyOK  = "OK"
	VerifyNOK = "NOK"

	// IgnoreKey is the report argument that skips PR verification
	IgnoreKey = "ignore"

	// IgnoreReportHash is sha256("ignore verify"). It is a fixed schema
	// constant and must never be recomputed from a different literal.
	IgnoreReportHash = "719a965d6d8936f09550efb75bcf4bff9f956143d9f78e30b62b966b6a9ebc35"

	// AdminSigPrefix is hashed verbatim in front of administrative signatures
	AdminSigPrefix = "new_pl:"

	adminTag     = "admin"
	adminPlID    = "new_pl"
	adminHashTag = "ignore"
)

// SignatureRecord is the attestation written beside a signed artifact.
// Field order matches the on-disk key order of historical records.
type SignatureRecord struct {
	BuildID   Ident  `json:"build_id"`
	Algorithm string `json:"algorithm" jsonschema:"enum=hc1"`
	File      string `json:"file"`
	ClID      *Ident `json:"cl_id,omitempty"`
	PlID      *Ident `json:"pl_id,omitempty"`
	Sig       string `json:"sig" jsonschema:"pattern=^[0-9a-f]{96}$"`
	Hash      string `json:"hash"`
	DcpHash   string `json:"dcp_hash,omitempty"`
	McsHash   string `json:"mcs_hash,omitempty"`
	BitHash   string `json:"bit_hash,omitempty"`
	RptHash   string `json:"rpt_hash,omitempty"`
	VerifyRpt string `json:"verify_rpt,omitempty"`
	Verify    string `json:"verify,omitempty" jsonschema:"enum=OK,enum=NOK"`
}

// NewAdminRecord returns a record pre-filled with the fixed administrative keys
func NewAdminRecord() *SignatureRecord {
	plID := StringIdent(adminPlID)
	return &SignatureRecord{
		BuildID:   StringIdent(adminTag),
		Algorithm: AlgorithmHC1,
		File:      adminTag,
		PlID:      &plID,
		Hash:      adminHashTag,
	}
}

// IsAdmin reports whether the record attests a new base design
func (r *SignatureRecord) IsAdmin() bool {
	return !r.BuildID.IsNumeric() && r.BuildID.String() == adminTag
}

// LineageID returns the base design identifier and the key it is stored under
func (r *SignatureRecord) LineageID() (Ident, IDKey, bool) {
	if r.PlID != nil {
		return *r.PlID, IDKeyPL, true
	}
	if r.ClID != nil {
		return *r.ClID, IDKeyCL, true
	}
	return Ident{}, "", false
}

// SetLineageID stores id under the key matching the metadata it came from
func (r *SignatureRecord) SetLineageID(id Ident, key IDKey) {
	if key == IDKeyPL {
		r.PlID, r.ClID = &id, nil
		return
	}
	r.ClID, r.PlID = &id, nil
}

// VerifyStatus maps a pass/fail result onto the record's verify field
func VerifyStatus(passed bool) string {
	if passed {
		return VerifyOK
	}
	return VerifyNOK
}
