package krb5keep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/iana/nametype"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/types"
	"github.com/stretchr/testify/require"
)

const testKrb5Conf = `[libdefaults]
 default_realm = EXAMPLE.COM
 dns_lookup_realm = false
 dns_lookup_kdc = false

[realms]
 EXAMPLE.COM = {
  kdc = kdc.example.com:88
 }
`

// testAuthContext returns a context with a pinned clock.
func testAuthContext(t *testing.T, now time.Time) *AuthContext {
	t.Helper()
	ctx, err := NewAuthContextFromString(testKrb5Conf)
	require.NoError(t, err)
	ctx.now = func() time.Time { return now }
	return ctx
}

func testIdentity(t *testing.T, name, realm string) *Identity {
	t.Helper()
	id, err := NewIdentity(types.PrincipalName{
		NameType:   nametype.KRB_NT_PRINCIPAL,
		NameString: []string{name},
	}, realm)
	require.NoError(t, err)
	return id
}

// testCredential builds a credential with the given window offsets relative
// to the context clock.
func testCredential(t *testing.T, ctx *AuthContext, client *Identity, end, renewTill time.Duration) *Credential {
	t.Helper()
	server, err := tgsIdentity(client.Realm())
	require.NoError(t, err)
	now := ctx.Now()
	key := types.EncryptionKey{KeyType: int32(etypeID.AES256_CTS_HMAC_SHA1_96), KeyValue: []byte("0123456789abcdef0123456789abcdef")}
	return NewCredential(ctx, client, server, []byte("opaque-ticket-payload"), key,
		[]byte{0x50, 0xe0, 0x00, 0x00}, now, now, now.Add(end), now.Add(renewTill))
}

// writeTestKeytab writes a one-entry keytab and returns its path.
func writeTestKeytab(t *testing.T, dir, principal, realm string) string {
	t.Helper()
	kt := keytab.New()
	err := kt.AddEntry(principal, realm, "s3cret-password", time.Now(), 1, etypeID.AES256_CTS_HMAC_SHA1_96)
	require.NoError(t, err)
	b, err := kt.Marshal()
	require.NoError(t, err)
	path := filepath.Join(dir, "test.keytab")
	require.NoError(t, os.WriteFile(path, b, 0600))
	return path
}

// fakeExchanger implements Exchanger without a KDC and records what was
// asked of it.
type fakeExchanger struct {
	ctx *AuthContext

	lifetime  time.Duration
	renewable time.Duration

	initialErr error
	renewErr   error

	initialCalls int
	renewCalls   int
}

func newFakeExchanger(ctx *AuthContext) *fakeExchanger {
	return &fakeExchanger{ctx: ctx, lifetime: 10 * time.Hour, renewable: 7 * 24 * time.Hour}
}

func (f *fakeExchanger) InitialCredential(kt *keytab.Keytab, id *Identity) (*Credential, error) {
	f.initialCalls++
	if f.initialErr != nil {
		return nil, f.initialErr
	}
	return f.makeCred(id)
}

func (f *fakeExchanger) RenewedCredential(id *Identity, cred *Credential) (*Credential, error) {
	f.renewCalls++
	if f.renewErr != nil {
		return nil, f.renewErr
	}
	return f.makeCred(id)
}

func (f *fakeExchanger) makeCred(id *Identity) (*Credential, error) {
	server, err := tgsIdentity(id.Realm())
	if err != nil {
		return nil, err
	}
	now := f.ctx.Now()
	key := types.EncryptionKey{KeyType: int32(etypeID.AES256_CTS_HMAC_SHA1_96), KeyValue: []byte("fedcba9876543210fedcba9876543210")}
	return NewCredential(f.ctx, id, server, []byte("fake-kdc-ticket"), key,
		[]byte{0x50, 0xe0, 0x00, 0x00}, now, now, now.Add(f.lifetime), now.Add(f.renewable)), nil
}
