package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

func newTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("cfbuild test", "", "build@example.com",
		&packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(t, err)
	return entity
}

func armored(t *testing.T, entity *openpgp.Entity, private bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	blockType := openpgp.PublicKeyType
	if private {
		blockType = openpgp.PrivateKeyType
	}
	w, err := armor.Encode(&buf, blockType, nil)
	require.NoError(t, err)
	if private {
		require.NoError(t, entity.SerializePrivate(w, nil))
	} else {
		require.NoError(t, entity.Serialize(w))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const testRecord = `{"build_id":3,"sig":"abc"}`

// signRecord writes testRecord and its detached signature, returning both paths
func signRecord(t *testing.T, signer *Signer, dir string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, "role.bit.sig")
	require.NoError(t, os.WriteFile(path, []byte(testRecord), 0o600))

	sig, err := signer.Sign([]byte(testRecord))
	require.NoError(t, err)
	sigPath := path + entities.DetachedSigExtension
	require.NoError(t, os.WriteFile(sigPath, sig, 0o600))
	return path, sigPath
}

func TestSigner_SignAndVerify(t *testing.T) {
	dir := t.TempDir()
	entity := newTestEntity(t)

	keyPath := filepath.Join(dir, "private.asc")
	require.NoError(t, os.WriteFile(keyPath, armored(t, entity, true), 0o600))

	signer := NewSigner()
	require.NoError(t, signer.ImportKeyFromFile(keyPath))

	require.NoError(t, signer.CheckSigningKey())
	record, sigPath := signRecord(t, signer, dir)

	data, err := os.ReadFile(sigPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), armorHeader))

	verifier := NewSigner()
	require.NoError(t, verifier.ImportKey(armored(t, entity, false)))
	assert.Equal(t, 1, verifier.KeyringSize())
	require.NoError(t, verifier.VerifyFile(record, sigPath))

	require.NoError(t, os.WriteFile(record, []byte(`{"build_id":3,"sig":"abd"}`), 0o600))
	assert.ErrorContains(t, verifier.VerifyFile(record, sigPath), "signature verification failed")
}

func TestSigner_VerifyRejectsForeignKey(t *testing.T) {
	dir := t.TempDir()
	signer := NewSigner()
	require.NoError(t, signer.ImportKey(armored(t, newTestEntity(t), true)))

	record, sigPath := signRecord(t, signer, dir)

	other := NewSigner()
	require.NoError(t, other.ImportKey(armored(t, newTestEntity(t), false)))
	assert.Error(t, other.VerifyFile(record, sigPath))
}

func TestSigner_SignRequiresPrivateKey(t *testing.T) {
	signer := NewSigner()
	assert.ErrorContains(t, signer.CheckSigningKey(), "no private key")

	require.NoError(t, signer.ImportKey(armored(t, newTestEntity(t), false)))
	assert.ErrorContains(t, signer.CheckSigningKey(), "no private key")

	_, err := signer.Sign([]byte(testRecord))
	assert.ErrorContains(t, err, "no private key")
}

func TestSigner_Errors(t *testing.T) {
	signer := NewSigner()

	err := signer.ImportKeyFromFile("/nonexistent/key.asc")
	assert.ErrorContains(t, err, "failed to open key file")

	assert.Error(t, signer.ImportKey([]byte("not a gpg key")))
	assert.ErrorContains(t, signer.VerifyFile("a", "b"), "no OpenPGP keys imported")
}
