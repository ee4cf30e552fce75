package krb5keep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialCache persists credentials under a principal in a FILE cache and
// knows how to renew them in place. Construction resolves the cache path and
// publishes it through KRB5CCNAME so other library users in the process find
// the same cache.
type CredentialCache struct {
	fileStore
	ctx  *AuthContext
	exch Exchanger
	file ccacheFile
	memo *credMemo
}

// NewCredentialCache resolves the cache location and exports KRB5CCNAME.
func NewCredentialCache(ctx *AuthContext, cfg *Config, exch Exchanger) *CredentialCache {
	cc := &CredentialCache{
		fileStore: newFileStore(cfg.CCachePath, cfg.ProgramMode(),
			defaultCCachePath,
			func() string { return filepath.Join(cfg.InstallDir, "krb5cc_"+progName()) }),
		ctx:  ctx,
		exch: exch,
		memo: newCredMemo(),
	}
	cc.file = ccacheFile{path: cc.plainPath()}
	if err := os.Setenv("KRB5CCNAME", cc.ResolvedPath()); err != nil {
		LogWarn("Failed to export KRB5CCNAME: %v", err)
	}
	return cc
}

// defaultCCachePath mirrors the library's default for interactive sessions.
func defaultCCachePath() string {
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func progName() string {
	return filepath.Base(os.Args[0])
}

// Create initializes the cache for the identity and stores the credential.
// Both inputs must be present and both steps must succeed; nil inputs return
// false without touching the cache file.
func (cc *CredentialCache) Create(id *Identity, cred *Credential) bool {
	if id == nil || cred == nil {
		return false
	}
	cc.memo.Invalidate(cc.plainPath())
	if err := cc.file.Initialize(id); err != nil {
		cc.ctx.ReportError(err, "initialize credential cache")
		return false
	}
	if err := cc.file.Store(cred); err != nil {
		cc.ctx.ReportError(err, "store credential")
		return false
	}
	cc.memo.Set(cc.plainPath(), cred)
	return true
}

// Refresh renews the cached credential against the same cache entry and
// rewrites the cache with the result. A renewal request failure propagates
// as false so the caller can fall back to a full reissue.
func (cc *CredentialCache) Refresh() bool {
	id := cc.GetIdentity()
	cred := cc.getCredentialFromFile()
	if id == nil || cred == nil {
		return false
	}
	renewed, err := cc.exch.RenewedCredential(id, cred)
	if err != nil {
		cc.ctx.ReportError(err, "renew credential for "+id.String())
		return false
	}
	return cc.Create(renewed.Client(), renewed)
}

// GetCredential returns the cached credential for the cache's stored client
// principal, looked up under the realm's ticket-granting service. Returns
// nil with a reported error on any lookup failure.
func (cc *CredentialCache) GetCredential() *Credential {
	if cred := cc.memo.Get(cc.plainPath()); cred != nil {
		return cred
	}
	return cc.getCredentialFromFile()
}

func (cc *CredentialCache) getCredentialFromFile() *Credential {
	ccache, err := cc.file.Load()
	if err != nil {
		cc.ctx.ReportError(err, "open credential cache "+cc.plainPath())
		return nil
	}
	realm := ccache.GetClientRealm()
	server, err := tgsIdentity(realm)
	if err != nil {
		cc.ctx.ReportError(err, "build server principal for realm "+realm)
		return nil
	}
	entry, ok := ccache.GetEntry(server.PrincipalName())
	if !ok {
		cc.ctx.ReportError(errors.New("no matching credential in cache"), "look up "+server.String())
		return nil
	}
	cred, err := credentialFromCacheEntry(cc.ctx, entry)
	if err != nil {
		cc.ctx.ReportError(err, "decode cached credential")
		return nil
	}
	cc.memo.Set(cc.plainPath(), cred)
	return cred
}

// GetIdentity returns the cache's stored client principal, or nil.
func (cc *CredentialCache) GetIdentity() *Identity {
	ccache, err := cc.file.Load()
	if err != nil {
		cc.ctx.ReportError(err, "open credential cache "+cc.plainPath())
		return nil
	}
	id, err := NewIdentity(ccache.GetClientPrincipalName(), ccache.GetClientRealm())
	if err != nil {
		cc.ctx.ReportError(err, "read cache principal")
		return nil
	}
	return id
}

// Close tears the cache down according to the process mode: managed runs
// destroy the cache so no stale tickets linger after the service stops;
// interactive runs merely close it, leaving the file for the next session.
func (cc *CredentialCache) Close() error {
	cc.memo.Invalidate(cc.plainPath())
	if cc.Mode() == ModeInteractive {
		return nil
	}
	if err := os.Remove(cc.plainPath()); err != nil && !os.IsNotExist(err) {
		cc.ctx.ReportError(err, "destroy credential cache")
		return err
	}
	return nil
}
