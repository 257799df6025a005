package entities

import (
	"fmt"
	"strings"
)

// Scheme selects the input tuple used for role signatures
type Scheme string

const (
	// SchemeHC1V3 chains dcp, signer, cert, artifact and report hashes
	SchemeHC1V3 Scheme = "hc1-v3"
	// SchemeHC1V1 is the legacy tuple without the report hash
	SchemeHC1V1 Scheme = "hc1-v1"

	DefaultScheme = SchemeHC1V3
)

// ParseScheme parses a scheme name; empty selects the default
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultScheme, nil
	case SchemeHC1V3:
		return SchemeHC1V3, nil
	case SchemeHC1V1:
		return SchemeHC1V1, nil
	default:
		return "", fmt.Errorf("unknown signature scheme %q (want %s or %s)", s, SchemeHC1V3, SchemeHC1V1)
	}
}

// SchemeForBuildID maps a record's build_id back to the scheme that wrote it
func SchemeForBuildID(id Ident) (Scheme, error) {
	if id.IsNumeric() {
		switch id.String() {
		case "3":
			return SchemeHC1V3, nil
		case "1":
			return SchemeHC1V1, nil
		}
	}
	return "", fmt.Errorf("no role signature scheme for build_id %s", id.String())
}

// BuildID is the build_id written by this scheme
func (s Scheme) BuildID() Ident {
	if s == SchemeHC1V1 {
		return IntIdent(1)
	}
	return IntIdent(3)
}

// UsesReport reports whether the report hash is part of the tuple
func (s Scheme) UsesReport() bool {
	return s == SchemeHC1V3
}
