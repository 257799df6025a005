// Package entities defines core domain models and data structures.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ident is an identifier issued by the artifact registry. The registry hands
// out both integers and strings, so the JSON form is preserved as-is.
type Ident struct {
	value   string
	numeric bool
}

// StringIdent creates a string identifier
func StringIdent(s string) Ident {
	return Ident{value: s}
}

// IntIdent creates a numeric identifier
func IntIdent(n int64) Ident {
	return Ident{value: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the canonical text form (decimal for numbers)
func (i Ident) String() string {
	return i.value
}

// IsNumeric reports whether the identifier was a JSON number
func (i Ident) IsNumeric() bool {
	return i.numeric
}

// IsZero reports whether the identifier is unset
func (i Ident) IsZero() bool {
	return i.value == "" && !i.numeric
}

// MarshalJSON writes numbers bare and strings quoted
func (i Ident) MarshalJSON() ([]byte, error) {
	if i.numeric {
		return []byte(i.value), nil
	}
	return json.Marshal(i.value)
}

// UnmarshalJSON accepts a JSON string or number
func (i *Ident) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty identifier")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Ident{value: s}
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*i = Ident{value: n.String(), numeric: true}
		return nil
	default:
		return fmt.Errorf("identifier must be a string or number, got %s", string(data))
	}
}

// IDKey names the metadata key an identifier was taken from
type IDKey string

const (
	// IDKeyCL is the default lineage key ("id" in metadata, "cl_id" in records)
	IDKeyCL IDKey = "cl_id"
	// IDKeyPL is the alternate lineage key used by Mantle shells
	IDKeyPL IDKey = "pl_id"
)

// ArtifactMetadata describes the currently trusted base design
type ArtifactMetadata struct {
	ID    Ident
	IDKey IDKey
	Cert  string
	Path  string // metadata file it was loaded from
}
