package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

var validSig = strings.Repeat("ab", 48)

func TestRecordValidator_Schema(t *testing.T) {
	v, err := NewRecordValidator()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(v.Schema(), &doc))
	assert.Equal(t, RecordSchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"build_id", "algorithm", "file", "cl_id", "pl_id", "sig", "hash", "verify_rpt"} {
		assert.Contains(t, props, key)
	}
	assert.ElementsMatch(t, []interface{}{"build_id", "algorithm", "file", "sig", "hash"}, doc["required"])
}

func TestRecordValidator_ValidateRecord(t *testing.T) {
	v, err := NewRecordValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		record  string
		wantErr bool
	}{
		{
			name:   "role record",
			record: `{"build_id":3,"algorithm":"hc1","file":"role.bit","cl_id":7,"sig":"` + validSig + `","hash":"aaa","verify_rpt":"ok","verify":"OK"}`,
		},
		{
			name:   "string lineage id",
			record: `{"build_id":1,"algorithm":"hc1","file":"role.bit","pl_id":"p-9","sig":"` + validSig + `","hash":"aaa"}`,
		},
		{
			name:   "admin record",
			record: `{"build_id":"admin","algorithm":"hc1","file":"admin","pl_id":"new_pl","sig":"` + validSig + `","hash":"ignore","dcp_hash":"d","mcs_hash":"m","bit_hash":"b","rpt_hash":"r","verify_rpt":"x","verify":"NOK"}`,
		},
		{
			name:    "missing sig",
			record:  `{"build_id":3,"algorithm":"hc1","file":"role.bit","hash":"aaa"}`,
			wantErr: true,
		},
		{
			name:    "unknown algorithm",
			record:  `{"build_id":3,"algorithm":"sha1","file":"f","sig":"` + validSig + `","hash":"aaa"}`,
			wantErr: true,
		},
		{
			name:    "short sig",
			record:  `{"build_id":3,"algorithm":"hc1","file":"f","sig":"abc","hash":"aaa"}`,
			wantErr: true,
		},
		{
			name:    "bool id",
			record:  `{"build_id":true,"algorithm":"hc1","file":"f","sig":"` + validSig + `","hash":"aaa"}`,
			wantErr: true,
		},
		{
			name:    "bad verify",
			record:  `{"build_id":3,"algorithm":"hc1","file":"f","sig":"` + validSig + `","hash":"aaa","verify":"maybe"}`,
			wantErr: true,
		},
		{
			name:    "unknown key",
			record:  `{"build_id":3,"algorithm":"hc1","file":"f","sig":"` + validSig + `","hash":"aaa","extra":1}`,
			wantErr: true,
		},
		{
			name:    "not json",
			record:  `{"build_id":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRecord([]byte(tt.record))
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrInvalidRecord)
				return
			}
			assert.NoError(t, err)
		})
	}
}
