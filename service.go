package krb5keep

import (
	"sync"
)

// CredentialService orchestrates the key store and the credential cache. All
// credential-affecting operations serialize on one plain mutex; the reissue
// fallback goes through createLocked so no call path ever re-enters the lock.
//
// The public surface is deliberately boolean: failures are translated and
// logged where they happen, and the caller only learns success or failure.
// The caller (an external scheduler such as cmd/krb5keepd) decides whether
// to retry, alert, or exit.
type CredentialService struct {
	mu     sync.Mutex
	keytab *KeyStore
	ccache *CredentialCache
}

// NewCredentialService builds the shared context and both stores. A context
// initialization failure is an explicit constructor error rather than a
// service that silently refuses every operation.
func NewCredentialService(cfg *Config) (*CredentialService, error) {
	ctx, err := NewAuthContext(cfg.Krb5ConfPath)
	if err != nil {
		return nil, err
	}
	exch := NewKDCExchanger(ctx)
	return &CredentialService{
		keytab: NewKeyStore(ctx, cfg, exch),
		ccache: NewCredentialCache(ctx, cfg, exch),
	}, nil
}

// CreateCredential issues a fresh credential from the key table and writes
// it to the cache, replacing whatever was there.
func (s *CredentialService) CreateCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *CredentialService) createLocked() bool {
	if s.keytab == nil || s.ccache == nil {
		return false
	}

	LogInfo("Creating credential cache")

	id := s.keytab.GetIdentity()
	cred := s.keytab.GetCredential()

	if !s.ccache.Create(id, cred) {
		return false
	}
	LogTicketCreated(id.String())
	if current := s.ccache.GetCredential(); current != nil {
		LogInfo("Ticket validity\n%s", current.TimesSummary())
	}
	return true
}

// RefreshCredential inspects the cached credential and does the least work
// that keeps the process authenticated: nothing while the ticket is valid, a
// renewal inside the renewable window, a full reissue past it. A failed
// renewal falls back to a full reissue instead of propagating, so a
// transient renewal problem never leaves the service without a ticket while
// reissue is still possible.
func (s *CredentialService) RefreshCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ccache == nil {
		return false
	}
	if !s.ccache.Exists() {
		return s.createLocked()
	}

	cred := s.ccache.GetCredential()
	if cred == nil {
		return false
	}

	switch cred.State() {
	case StateRenew:
		LogInfo("Renewing credential cache")
		if s.ccache.Refresh() {
			if current := s.ccache.GetCredential(); current != nil {
				LogTicketRenewed(current.Client().String())
				LogInfo("Ticket validity\n%s", current.TimesSummary())
			}
			return true
		}
		LogRenewalFallback()
		return s.createLocked()

	case StateReinit:
		return s.createLocked()

	default:
		return true
	}
}

// Close releases the cache according to the process mode. Call once at
// process exit.
func (s *CredentialService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ccache == nil {
		return nil
	}
	return s.ccache.Close()
}
