package krb5keep

import (
	"fmt"
	"time"

	"github.com/jcmturner/gokrb5/v8/types"
)

// CredState classifies a credential against the current time.
type CredState int

const (
	// StateValid means the ticket has not yet expired; nothing to do.
	StateValid CredState = iota
	// StateRenew means the ticket has expired but is still inside its
	// renewable window; a renewal request can extend it.
	StateRenew
	// StateReinit means the renewable window has also passed; only a full
	// reissue from the long-term key can help.
	StateReinit
)

func (s CredState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateRenew:
		return "renew"
	case StateReinit:
		return "reinit"
	default:
		return "unknown"
	}
}

// Credential is an immutable snapshot of a ticket: the encoded ticket itself,
// its session key, and its validity window. It never mutates after
// construction; renewal produces a new Credential.
type Credential struct {
	ctx    *AuthContext
	client *Identity
	server *Identity

	ticket []byte
	key    types.EncryptionKey
	flags  []byte

	authTime  time.Time
	startTime time.Time
	endTime   time.Time
	renewTill time.Time
}

// NewCredential takes ownership of the encoded ticket and session key and
// wraps them with the validity window reported by the KDC.
func NewCredential(ctx *AuthContext, client, server *Identity, ticket []byte,
	key types.EncryptionKey, flags []byte, authTime, startTime, endTime, renewTill time.Time) *Credential {
	return &Credential{
		ctx:       ctx,
		client:    client,
		server:    server,
		ticket:    ticket,
		key:       key,
		flags:     flags,
		authTime:  authTime,
		startTime: startTime,
		endTime:   endTime,
		renewTill: renewTill,
	}
}

// Client returns the principal the ticket was issued to.
func (c *Credential) Client() *Identity {
	return c.client
}

// Server returns the service principal the ticket is for.
func (c *Credential) Server() *Identity {
	return c.server
}

// StartTime returns the start of the ticket's validity window.
func (c *Credential) StartTime() time.Time {
	return c.startTime
}

// EndTime returns the end of the ticket's validity window.
func (c *Credential) EndTime() time.Time {
	return c.endTime
}

// RenewTill returns the time until which the ticket can be renewed.
func (c *Credential) RenewTill() time.Time {
	return c.renewTill
}

// State classifies the credential using the library's time source, so the
// comparison stays on the same base the ticket times were issued on.
func (c *Credential) State() CredState {
	now := c.ctx.Now()
	if now.Before(c.endTime) {
		return StateValid
	}
	if now.Before(c.renewTill) {
		return StateRenew
	}
	return StateReinit
}

// TimesSummary renders the ticket window plus "now" for diagnostics.
func (c *Credential) TimesSummary() string {
	return fmt.Sprintf("now: %s\nstart time: %s\nend time: %s\nrenew possible until: %s",
		timeToString(c.ctx.Now()),
		timeToString(c.startTime),
		timeToString(c.endTime),
		timeToString(c.renewTill))
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}
