package krb5keep

import (
	"errors"
	"path/filepath"

	"github.com/jcmturner/gokrb5/v8/iana/nametype"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/types"
)

// defaultKeytabPath is where the system keeps the host keytab.
const defaultKeytabPath = "/etc/krb5.keytab"

// KeyStore reads the long-term key and principal from a key table file and
// exchanges the key for fresh credentials. The keytab is opened eagerly at
// construction; an open failure is reported once and every later operation
// returns empty results.
type KeyStore struct {
	fileStore
	ctx  *AuthContext
	exch Exchanger
	kt   *keytab.Keytab
}

// NewKeyStore resolves the key table path and loads it.
func NewKeyStore(ctx *AuthContext, cfg *Config, exch Exchanger) *KeyStore {
	ks := &KeyStore{
		fileStore: newFileStore(cfg.KeytabPath, cfg.ProgramMode(),
			func() string { return defaultKeytabPath },
			func() string { return filepath.Join(cfg.InstallDir, "keytab") }),
		ctx:  ctx,
		exch: exch,
	}
	kt, err := keytab.Load(ks.plainPath())
	if err != nil {
		ctx.ReportError(err, "open key table "+ks.plainPath())
		return ks
	}
	ks.kt = kt
	return ks
}

// GetIdentity returns the principal of the first key table entry, or nil if
// the table is absent or empty. An empty table is not an error to the
// caller; it is reported here and yields no identity.
func (ks *KeyStore) GetIdentity() *Identity {
	if ks.kt == nil {
		return nil
	}
	if len(ks.kt.Entries) == 0 {
		ks.ctx.ReportError(errors.New("key table has no entries"), "read key table entry")
		return nil
	}
	entry := ks.kt.Entries[0].Principal
	id, err := NewIdentity(types.PrincipalName{
		NameType:   nametype.KRB_NT_PRINCIPAL,
		NameString: entry.Components,
	}, entry.Realm)
	if err != nil {
		ks.ctx.ReportError(err, "copy key table principal")
		return nil
	}
	return id
}

// GetCredential exchanges the long-term key for a fresh credential, or nil
// on any failure after reporting it.
func (ks *KeyStore) GetCredential() *Credential {
	id := ks.GetIdentity()
	if id == nil {
		return nil
	}
	cred, err := ks.exch.InitialCredential(ks.kt, id)
	if err != nil {
		ks.ctx.ReportError(err, "obtain initial credential for "+id.String())
		return nil
	}
	return cred
}
