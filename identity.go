package krb5keep

import (
	"errors"
	"strings"

	"github.com/jcmturner/gokrb5/v8/types"
)

// Identity is a client or server principal scoped to a realm. It owns a deep
// copy of the name components taken at construction time and is immutable
// afterwards.
type Identity struct {
	name  types.PrincipalName
	realm string
}

// NewIdentity copies the given principal name into a new Identity.
// Construction fails explicitly on an unusable principal; callers never
// receive a half-constructed identity.
func NewIdentity(name types.PrincipalName, realm string) (*Identity, error) {
	if len(name.NameString) == 0 || name.NameString[0] == "" {
		return nil, errors.New("principal has no name components")
	}
	if realm == "" {
		return nil, errors.New("principal has an empty realm")
	}
	components := make([]string, len(name.NameString))
	copy(components, name.NameString)
	return &Identity{
		name: types.PrincipalName{
			NameType:   name.NameType,
			NameString: components,
		},
		realm: realm,
	}, nil
}

// Realm returns the realm the principal belongs to.
func (i *Identity) Realm() string {
	return i.realm
}

// Name returns the principal name without the realm, components joined by "/".
func (i *Identity) Name() string {
	return strings.Join(i.name.NameString, "/")
}

// PrincipalName returns a copy of the native principal name for passing to
// library calls.
func (i *Identity) PrincipalName() types.PrincipalName {
	components := make([]string, len(i.name.NameString))
	copy(components, i.name.NameString)
	return types.PrincipalName{
		NameType:   i.name.NameType,
		NameString: components,
	}
}

func (i *Identity) String() string {
	return i.Name() + "@" + i.realm
}
