// Package krb5keep keeps a Kerberos credential cache alive for a long-running
// process: it obtains a TGT from a keytab, persists it in a FILE credential
// cache, and decides on every refresh whether the cached ticket is still
// valid, renewable, or must be reissued from the long-term key.
package krb5keep

import (
	"errors"
	"fmt"
	"strings"
	"time"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/krberror"
)

// AuthContext holds the state shared by every component that talks to the
// Kerberos library: the parsed krb5.conf and the library time source. It is
// shared by plain pointer; the last holder dropping it frees it via GC.
type AuthContext struct {
	cfg *krb5config.Config
	now func() time.Time
}

// NewAuthContext loads krb5.conf and returns the shared context.
// An empty path falls back to /etc/krb5.conf. A load failure is fatal to the
// whole service: callers must not construct stores without a context.
func NewAuthContext(krb5ConfPath string) (*AuthContext, error) {
	if krb5ConfPath == "" {
		krb5ConfPath = "/etc/krb5.conf"
	}
	cfg, err := krb5config.Load(krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5 config %s: %w", krb5ConfPath, err)
	}
	return &AuthContext{cfg: cfg, now: defaultNow}, nil
}

// NewAuthContextFromString builds a context from krb5.conf content.
// Used by tests and embedders that carry their own configuration.
func NewAuthContextFromString(krb5Conf string) (*AuthContext, error) {
	cfg, err := krb5config.NewFromString(krb5Conf)
	if err != nil {
		return nil, fmt.Errorf("parse krb5 config: %w", err)
	}
	return &AuthContext{cfg: cfg, now: defaultNow}, nil
}

func defaultNow() time.Time {
	// Ticket times are exchanged in UTC; stay on the library's time base.
	return time.Now().UTC()
}

// Krb5Config returns the parsed library configuration (borrowed, non-owning).
func (c *AuthContext) Krb5Config() *krb5config.Config {
	return c.cfg
}

// Now returns the current time on the library's time base.
func (c *AuthContext) Now() time.Time {
	return c.now()
}

// ReportError translates a Kerberos library error into a human-readable log
// line. Best effort: it never fails and never propagates the error further.
func (c *AuthContext) ReportError(err error, message string) {
	if err == nil {
		return
	}
	var ke krberror.Krberror
	if errors.As(err, &ke) {
		LogError("Kerberos error (%s): %s: %s", message, ke.RootCause, strings.Join(ke.EText, "; "))
		return
	}
	LogError("Kerberos error (%s): %v", message, err)
}
