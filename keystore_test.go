package krb5keep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreGetIdentity(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)
	path := writeTestKeytab(t, t.TempDir(), "svc/host.example.com", "EXAMPLE.COM")

	cfg := &Config{Mode: string(ModeInteractive), KeytabPath: path}
	ks := NewKeyStore(ctx, cfg, newFakeExchanger(ctx))

	id := ks.GetIdentity()
	require.NotNil(t, id)
	assert.Equal(t, "svc/host.example.com", id.Name())
	assert.Equal(t, "EXAMPLE.COM", id.Realm())
}

func TestKeyStoreGetCredential(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)
	path := writeTestKeytab(t, t.TempDir(), "svc/host.example.com", "EXAMPLE.COM")

	fake := newFakeExchanger(ctx)
	ks := NewKeyStore(ctx, &Config{KeytabPath: path}, fake)

	cred := ks.GetCredential()
	require.NotNil(t, cred)
	assert.Equal(t, 1, fake.initialCalls)
	assert.Equal(t, StateValid, cred.State())
	assert.Equal(t, "svc/host.example.com@EXAMPLE.COM", cred.Client().String())
}

func TestKeyStoreEmptyKeytab(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)

	// A structurally valid keytab with zero entries.
	b, err := keytab.New().Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.keytab")
	require.NoError(t, os.WriteFile(path, b, 0600))

	fake := newFakeExchanger(ctx)
	ks := NewKeyStore(ctx, &Config{KeytabPath: path}, fake)

	assert.Nil(t, ks.GetIdentity())
	assert.Nil(t, ks.GetCredential())
	assert.Equal(t, 0, fake.initialCalls)
}

func TestKeyStoreMissingKeytab(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)

	fake := newFakeExchanger(ctx)
	ks := NewKeyStore(ctx, &Config{KeytabPath: filepath.Join(t.TempDir(), "missing.keytab")}, fake)

	// Open failure at construction turns every operation into a no-op.
	assert.Nil(t, ks.GetIdentity())
	assert.Nil(t, ks.GetCredential())
	assert.Equal(t, 0, fake.initialCalls)
}
