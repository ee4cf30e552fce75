package krb5keep

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/jcmturner/gokrb5/v8/credentials"
)

// FILE credential cache format version 4 (the MIT default since krb5 1.3).
// The library only reads this format; writing it is on us. Layout, all
// integers big-endian:
//
//	magic: 0x05, format version 0x04
//	header: uint16 length, then tagged fields (tag 1 = KDC time delta)
//	default principal
//	credential records until EOF
//
// A principal is: int32 name type, int32 component count, realm and each
// component as int32 length + bytes. A record is: client and server
// principals, key (int16 type, data), four int32 timestamps, one is-skey
// byte, four flag bytes, address and authdata counts (int32 each), the
// encoded ticket and second ticket as data. Data means int32 length + bytes.
const (
	ccacheMagic         = 0x05
	ccacheFormatVersion = 0x04
	headerTagDeltaTime  = 0x01
)

// ccacheFile writes credential cache files at a fixed path. Reading goes
// through the library's own parser so anything we write stays compatible
// with every other reader of the cache.
type ccacheFile struct {
	path string
}

// Initialize truncates the cache and writes the header and default
// principal. Any credentials previously in the cache are gone afterwards.
func (f ccacheFile) Initialize(id *Identity) error {
	var buf bytes.Buffer
	buf.WriteByte(ccacheMagic)
	buf.WriteByte(ccacheFormatVersion)

	// Single deltatime header field with a zero offset.
	writeInt16(&buf, 12)
	writeInt16(&buf, headerTagDeltaTime)
	writeInt16(&buf, 8)
	writeInt32(&buf, 0)
	writeInt32(&buf, 0)

	writePrincipal(&buf, id)

	if err := os.WriteFile(f.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("initialize credential cache %s: %w", f.path, err)
	}
	return nil
}

// Store appends one credential record to an initialized cache.
func (f ccacheFile) Store(cred *Credential) error {
	var buf bytes.Buffer
	writePrincipal(&buf, cred.client)
	writePrincipal(&buf, cred.server)

	writeInt16(&buf, int16(cred.key.KeyType))
	writeData(&buf, cred.key.KeyValue)

	writeTimestamp(&buf, cred.authTime)
	writeTimestamp(&buf, cred.startTime)
	writeTimestamp(&buf, cred.endTime)
	writeTimestamp(&buf, cred.renewTill)

	buf.WriteByte(0) // not a session-key-encrypted ticket

	flags := make([]byte, 4)
	copy(flags, cred.flags)
	buf.Write(flags)

	writeInt32(&buf, 0) // addresses
	writeInt32(&buf, 0) // authorization data

	writeData(&buf, cred.ticket)
	writeData(&buf, nil) // second ticket

	h, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open credential cache %s: %w", f.path, err)
	}
	defer h.Close()
	if _, err := h.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("store credential in %s: %w", f.path, err)
	}
	return nil
}

// Load parses the cache through the library reader.
func (f ccacheFile) Load() (*credentials.CCache, error) {
	return credentials.LoadCCache(f.path)
}

// credentialFromCacheEntry rebuilds a Credential from a parsed cache record.
func credentialFromCacheEntry(ctx *AuthContext, entry *credentials.Credential) (*Credential, error) {
	client, err := NewIdentity(entry.Client.PrincipalName, entry.Client.Realm)
	if err != nil {
		return nil, fmt.Errorf("cached client principal: %w", err)
	}
	server, err := NewIdentity(entry.Server.PrincipalName, entry.Server.Realm)
	if err != nil {
		return nil, fmt.Errorf("cached server principal: %w", err)
	}
	return NewCredential(ctx, client, server, entry.Ticket, entry.Key, entry.TicketFlags.Bytes,
		entry.AuthTime, entry.StartTime, entry.EndTime, entry.RenewTill), nil
}

func writePrincipal(buf *bytes.Buffer, id *Identity) {
	name := id.PrincipalName()
	writeInt32(buf, name.NameType)
	writeInt32(buf, int32(len(name.NameString)))
	writeData(buf, []byte(id.Realm()))
	for _, component := range name.NameString {
		writeData(buf, []byte(component))
	}
}

func writeData(buf *bytes.Buffer, b []byte) {
	writeInt32(buf, int32(len(b)))
	buf.Write(b)
}

func writeTimestamp(buf *bytes.Buffer, t time.Time) {
	if t.IsZero() {
		writeInt32(buf, 0)
		return
	}
	writeInt32(buf, int32(t.Unix()))
}

func writeInt16(buf *bytes.Buffer, v int16) {
	binary.Write(buf, binary.BigEndian, v)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	binary.Write(buf, binary.BigEndian, v)
}
