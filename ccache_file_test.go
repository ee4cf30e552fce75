package krb5keep

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The writer has to produce exactly what the library parser reads back, or
// every other Kerberos consumer in the process would see a corrupt cache.
func TestCCacheFileRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)
	client := testIdentity(t, "alice", "EXAMPLE.COM")
	cred := testCredential(t, ctx, client, time.Hour, 24*time.Hour)

	f := ccacheFile{path: filepath.Join(t.TempDir(), "krb5cc_test")}
	require.NoError(t, f.Initialize(client))
	require.NoError(t, f.Store(cred))

	ccache, err := credentials.LoadCCache(f.path)
	require.NoError(t, err)

	assert.Equal(t, "EXAMPLE.COM", ccache.GetClientRealm())
	assert.Equal(t, []string{"alice"}, ccache.GetClientPrincipalName().NameString)

	server, err := tgsIdentity("EXAMPLE.COM")
	require.NoError(t, err)
	entry, ok := ccache.GetEntry(server.PrincipalName())
	require.True(t, ok, "krbtgt entry not found in cache")

	assert.Equal(t, cred.ticket, entry.Ticket)
	assert.Equal(t, cred.key.KeyType, entry.Key.KeyType)
	assert.Equal(t, cred.key.KeyValue, entry.Key.KeyValue)
	assert.Equal(t, cred.startTime.Unix(), entry.StartTime.Unix())
	assert.Equal(t, cred.endTime.Unix(), entry.EndTime.Unix())
	assert.Equal(t, cred.renewTill.Unix(), entry.RenewTill.Unix())
}

func TestCredentialFromCacheEntry(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)
	client := testIdentity(t, "alice", "EXAMPLE.COM")
	cred := testCredential(t, ctx, client, -10*time.Second, 100*time.Second)

	f := ccacheFile{path: filepath.Join(t.TempDir(), "krb5cc_test")}
	require.NoError(t, f.Initialize(client))
	require.NoError(t, f.Store(cred))

	ccache, err := f.Load()
	require.NoError(t, err)
	server, err := tgsIdentity("EXAMPLE.COM")
	require.NoError(t, err)
	entry, ok := ccache.GetEntry(server.PrincipalName())
	require.True(t, ok)

	got, err := credentialFromCacheEntry(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, "alice@EXAMPLE.COM", got.Client().String())
	assert.Equal(t, "krbtgt/EXAMPLE.COM@EXAMPLE.COM", got.Server().String())
	assert.Equal(t, StateRenew, got.State())
}

func TestCCacheInitializeReplacesContents(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ctx := testAuthContext(t, now)
	alice := testIdentity(t, "alice", "EXAMPLE.COM")
	bob := testIdentity(t, "bob", "EXAMPLE.COM")

	f := ccacheFile{path: filepath.Join(t.TempDir(), "krb5cc_test")}
	require.NoError(t, f.Initialize(alice))
	require.NoError(t, f.Store(testCredential(t, ctx, alice, time.Hour, 24*time.Hour)))

	// Re-initializing for another principal wipes the previous record.
	require.NoError(t, f.Initialize(bob))

	ccache, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ccache.GetClientPrincipalName().NameString)
	assert.Empty(t, ccache.Credentials)
}
