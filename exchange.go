package krb5keep

import (
	"fmt"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/iana/nametype"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/types"
)

// Exchanger is the authentication protocol boundary. The lifecycle engine
// only decides when to ask for which operation; the actual AS/TGS exchanges
// live behind this interface.
type Exchanger interface {
	// InitialCredential exchanges the long-term key for a fresh ticket.
	InitialCredential(kt *keytab.Keytab, id *Identity) (*Credential, error)
	// RenewedCredential extends an existing ticket's validity without a
	// full reissue.
	RenewedCredential(id *Identity, cred *Credential) (*Credential, error)
}

// KDCExchanger implements Exchanger against a real KDC using gokrb5.
type KDCExchanger struct {
	ctx *AuthContext
}

// NewKDCExchanger returns an Exchanger bound to the shared context.
func NewKDCExchanger(ctx *AuthContext) *KDCExchanger {
	return &KDCExchanger{ctx: ctx}
}

// tgsIdentity builds the well-known ticket-granting service principal for a
// realm: krbtgt/REALM@REALM.
func tgsIdentity(realm string) (*Identity, error) {
	return NewIdentity(types.PrincipalName{
		NameType:   nametype.KRB_NT_SRV_INST,
		NameString: []string{"krbtgt", realm},
	}, realm)
}

// InitialCredential performs an AS exchange authenticated with the keytab.
func (x *KDCExchanger) InitialCredential(kt *keytab.Keytab, id *Identity) (*Credential, error) {
	cl := client.NewWithKeytab(id.Name(), id.Realm(), kt, x.ctx.Krb5Config(), client.DisablePAFXFAST(true))
	defer cl.Destroy()

	asReq, err := messages.NewASReqForTGT(id.Realm(), x.ctx.Krb5Config(), id.PrincipalName())
	if err != nil {
		return nil, fmt.Errorf("build AS request: %w", err)
	}
	asRep, err := cl.ASExchange(id.Realm(), asReq, 0)
	if err != nil {
		return nil, fmt.Errorf("AS exchange: %w", err)
	}
	return x.credentialFromRep(id, asRep.Ticket, asRep.DecryptedEncPart)
}

// RenewedCredential sends a TGS request with the renew option against the
// ticket held in cred. The KDC refuses renewal outside the renewable window;
// that failure is the caller's cue to fall back to a full reissue.
func (x *KDCExchanger) RenewedCredential(id *Identity, cred *Credential) (*Credential, error) {
	var tkt messages.Ticket
	if err := tkt.Unmarshal(cred.ticket); err != nil {
		return nil, fmt.Errorf("decode cached ticket: %w", err)
	}
	tgs, err := tgsIdentity(id.Realm())
	if err != nil {
		return nil, err
	}

	// The TGS exchange authenticates with the ticket's session key; the
	// client only carries the name and configuration, so an empty keytab
	// is fine here.
	cl := client.NewWithKeytab(id.Name(), id.Realm(), keytab.New(), x.ctx.Krb5Config(), client.DisablePAFXFAST(true))
	defer cl.Destroy()

	_, tgsRep, err := cl.TGSREQGenerateAndExchange(tgs.PrincipalName(), id.Realm(), tkt, cred.key, true)
	if err != nil {
		return nil, fmt.Errorf("TGS renewal exchange: %w", err)
	}
	return x.credentialFromRep(id, tgsRep.Ticket, tgsRep.DecryptedEncPart)
}

// credentialFromRep assembles a Credential from a decrypted KDC reply.
func (x *KDCExchanger) credentialFromRep(client *Identity, tkt messages.Ticket, enc messages.EncKDCRepPart) (*Credential, error) {
	ticketBytes, err := tkt.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	server, err := NewIdentity(enc.SName, enc.SRealm)
	if err != nil {
		return nil, fmt.Errorf("server principal in KDC reply: %w", err)
	}
	return NewCredential(x.ctx, client, server, ticketBytes, enc.Key, enc.Flags.Bytes,
		enc.AuthTime, enc.StartTime, enc.EndTime, enc.RenewTill), nil
}
