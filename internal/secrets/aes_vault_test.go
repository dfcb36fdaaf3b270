package secrets

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

// mapStore is an in-memory SecretStore for vault tests.
type mapStore struct {
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) StoreSecret(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *mapStore) GetSecret(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	return v, nil
}

func (m *mapStore) DeleteSecret(_ context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	delete(m.data, key)
	return nil
}

func (m *mapStore) ListSecrets(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func testVault(t *testing.T) (*AESVault, *mapStore) {
	t.Helper()
	s := newMapStore()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	v, err := NewAESVault(s, VaultConfig{MasterKey: key})
	require.NoError(t, err)
	return v, s
}

func TestVaultStoreAndResolve(t *testing.T) {
	v, _ := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "twilio.auth_token", []byte("tok-123")))

	val, err := v.Resolve(ctx, "twilio.auth_token")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-123"), val)
}

func TestVaultEncryptedAtRest(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "resend.api_key", []byte("re_plaintext")))

	raw := s.data["resend.api_key"]
	assert.NotEqual(t, []byte("re_plaintext"), raw)
	assert.Greater(t, len(raw), len("re_plaintext"))
}

func TestVaultCiphertextBoundToKey(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "openai.api_key", []byte("sk-abc")))

	// Moving the ciphertext to a different key must fail to decrypt.
	s.data["perplexity.api_key"] = s.data["openai.api_key"]
	_, err := v.Resolve(ctx, "perplexity.api_key")
	require.Error(t, err)

	var gerr *schema.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, schema.ErrCodeVault, gerr.Code)
}

func TestVaultPassphraseDerivation(t *testing.T) {
	s := newMapStore()
	v, err := NewAESVault(s, VaultConfig{
		Passphrase: "my-secure-passphrase",
		Salt:       []byte("homeroom-salt-16"),
		Iterations: 1000, // low for test speed
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "k", []byte("value")))
	val, err := v.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)
}

func TestVaultWrongKeyCannotDecrypt(t *testing.T) {
	s := newMapStore()
	ctx := context.Background()

	key1 := make([]byte, 32)
	key2 := make([]byte, 32)
	key2[0] = 0xFF

	v1, _ := NewAESVault(s, VaultConfig{MasterKey: key1})
	require.NoError(t, v1.Store(ctx, "secret", []byte("hidden")))

	v2, _ := NewAESVault(s, VaultConfig{MasterKey: key2})
	_, err := v2.Resolve(ctx, "secret")
	require.Error(t, err)
}

func TestVaultTamperedCiphertext(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "k", []byte("value")))
	raw := s.data["k"]
	raw[len(raw)-1] ^= 0x01

	_, err := v.Resolve(ctx, "k")
	require.Error(t, err)
}

func TestVaultUniqueNonces(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "k1", []byte("same-value")))
	ct1 := make([]byte, len(s.data["k1"]))
	copy(ct1, s.data["k1"])

	require.NoError(t, v.Store(ctx, "k2", []byte("same-value")))

	assert.False(t, bytes.Equal(ct1[:12], s.data["k2"][:12]))
}

func TestVaultDeleteAndList(t *testing.T) {
	v, _ := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "a", []byte("1")))
	require.NoError(t, v.Store(ctx, "b", []byte("2")))

	keys, err := v.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, v.Delete(ctx, "a"))
	_, err = v.Resolve(ctx, "a")
	require.Error(t, err)
}

func TestVaultConfigValidation(t *testing.T) {
	_, err := NewAESVault(newMapStore(), VaultConfig{MasterKey: []byte("too-short")})
	require.Error(t, err)

	_, err = NewAESVault(newMapStore(), VaultConfig{})
	require.Error(t, err)

	_, err = NewAESVault(newMapStore(), VaultConfig{Passphrase: "pass"})
	require.Error(t, err)
}

func TestCredentialsLookupEnvFirst(t *testing.T) {
	v, _ := testVault(t)
	ctx := context.Background()
	require.NoError(t, v.Store(ctx, "twilio.auth_token", []byte("from-vault")))

	c := NewCredentials(v)

	t.Setenv("HOMEROOM_TWILIO_AUTH_TOKEN", "from-env")
	assert.Equal(t, "from-env", c.Lookup(ctx, "HOMEROOM_TWILIO_AUTH_TOKEN", "twilio.auth_token"))

	t.Setenv("HOMEROOM_TWILIO_AUTH_TOKEN", "")
	assert.Equal(t, "from-vault", c.Lookup(ctx, "HOMEROOM_TWILIO_AUTH_TOKEN", "twilio.auth_token"))

	assert.Empty(t, c.Lookup(ctx, "HOMEROOM_MISSING", "no.such.key"))
}

func TestCredentialsLookupNilVault(t *testing.T) {
	c := NewCredentials(nil)
	t.Setenv("HOMEROOM_TEST_CRED", "x")
	assert.Equal(t, "x", c.Lookup(context.Background(), "HOMEROOM_TEST_CRED", "k"))
	assert.Empty(t, c.Lookup(context.Background(), "HOMEROOM_UNSET_CRED", "k"))
}
