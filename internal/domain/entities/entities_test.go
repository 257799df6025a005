package entities

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdent_JSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantString  string
		wantNumeric bool
		wantErr     bool
	}{
		{name: "integer", input: `7`, wantString: "7", wantNumeric: true},
		{name: "negative", input: `-1`, wantString: "-1", wantNumeric: true},
		{name: "string", input: `"shell-42"`, wantString: "shell-42"},
		{name: "numeric string stays string", input: `"7"`, wantString: "7"},
		{name: "null", input: `null`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id Ident
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantString, id.String())
			assert.Equal(t, tt.wantNumeric, id.IsNumeric())

			out, err := json.Marshal(id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}
}

func TestSignatureRecord_LineageID(t *testing.T) {
	r := &SignatureRecord{}
	_, _, ok := r.LineageID()
	assert.False(t, ok)

	r.SetLineageID(IntIdent(7), IDKeyCL)
	id, key, ok := r.LineageID()
	require.True(t, ok)
	assert.Equal(t, IDKeyCL, key)
	assert.Equal(t, "7", id.String())

	r.SetLineageID(StringIdent("m-1"), IDKeyPL)
	assert.Nil(t, r.ClID)
	id, key, _ = r.LineageID()
	assert.Equal(t, IDKeyPL, key)
	assert.Equal(t, "m-1", id.String())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "cl_id")
}

func TestNewAdminRecord(t *testing.T) {
	r := NewAdminRecord()
	assert.True(t, r.IsAdmin())
	assert.Equal(t, AlgorithmHC1, r.Algorithm)
	assert.Equal(t, "admin", r.File)
	assert.Equal(t, "ignore", r.Hash)

	id, key, ok := r.LineageID()
	require.True(t, ok)
	assert.Equal(t, IDKeyPL, key)
	assert.Equal(t, "new_pl", id.String())

	role := &SignatureRecord{BuildID: IntIdent(3)}
	assert.False(t, role.IsAdmin())
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemeHC1V3, s)

	s, err = ParseScheme("HC1-V1")
	require.NoError(t, err)
	assert.Equal(t, SchemeHC1V1, s)
	assert.False(t, s.UsesReport())
	assert.Equal(t, "1", s.BuildID().String())

	_, err = ParseScheme("hc2")
	assert.Error(t, err)
}

func TestSchemeForBuildID(t *testing.T) {
	s, err := SchemeForBuildID(IntIdent(3))
	require.NoError(t, err)
	assert.Equal(t, SchemeHC1V3, s)

	_, err = SchemeForBuildID(StringIdent("3"))
	assert.Error(t, err)

	_, err = SchemeForBuildID(IntIdent(2))
	assert.Error(t, err)
}

func TestProjectLayout(t *testing.T) {
	l := NewProjectLayout(Project{Root: "/p", Module: "FMKU60"})

	assert.Equal(t, "3_topFMKU60_STATIC.dcp", l.StaticDcpName())
	assert.Equal(t, "/p/dcps/3_topFMKU60_STATIC.json", l.StaticMetaPath())
	assert.Equal(t, "/p/dcps/role.bit.sig", l.SigPath("role.bit"))
	assert.Equal(t, "/p/dcps/admin.sig", l.AdminSigPath())
	assert.Equal(t, "/abs/x.bin", l.InDcps("/abs/x.bin"))
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &NotFoundError{Path: "/x"}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrParse))

	inner := errors.New("boom")
	err = &IOError{Op: "read", Path: "/x", Err: inner}
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, inner))

	err = &ParseError{Path: "/x", Err: inner}
	assert.True(t, errors.Is(err, ErrParse))

	err = &MissingFieldError{Path: "/x", Field: "cert"}
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), `"cert"`)

	err = &MismatchError{Field: "sig", Expected: "a", Actual: "b"}
	assert.True(t, errors.Is(err, ErrSignatureMismatch))
}

func TestVerifyStatus(t *testing.T) {
	assert.Equal(t, "OK", VerifyStatus(true))
	assert.Equal(t, "NOK", VerifyStatus(false))

	r := IgnoredReport()
	assert.True(t, r.Passed)
	assert.Equal(t, IgnoreReportHash, r.Hash)
}
