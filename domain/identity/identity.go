package identity

import "fmt"

// UnresolvedID marks an identity without a mapping entry. Real Bitrix24
// user ids are non-negative.
const UnresolvedID = -1

// User is one destination-side identity from the mapping file.
type User struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Mapping associates source-system logins with destination users.
// It is built once per event from the repository configuration file
// and never mutated afterwards. Lookup is exact-match, case-sensitive.
type Mapping map[string]User

// Identity is the result of resolving one source login.
type Identity struct {
	ID    int
	Name  string
	Login string
}

// Resolved reports whether the login had a mapping entry.
func (i Identity) Resolved() bool {
	return i.ID >= 0
}

// Mention renders the identity as destination markup: a USER tag when
// resolved, plain @login otherwise. The fallback keeps the message
// readable on mobile clients that cannot render USER tags for unknown
// ids.
func (i Identity) Mention() string {
	if !i.Resolved() {
		return "@" + i.Login
	}
	return fmt.Sprintf("[USER=%d]%s[/USER]", i.ID, i.Name)
}

// Resolve looks every login up against the mapping. The result has the
// same length and order as logins. A miss is not an error: it yields an
// unresolved identity whose display name echoes the login.
func Resolve(m Mapping, logins []string) []Identity {
	out := make([]Identity, len(logins))
	for idx, login := range logins {
		if u, ok := m[login]; ok {
			out[idx] = Identity{ID: u.ID, Name: u.Name, Login: login}
			continue
		}
		out[idx] = Identity{ID: UnresolvedID, Name: login, Login: login}
	}
	return out
}

// ResolveOne resolves a single login.
func ResolveOne(m Mapping, login string) Identity {
	return Resolve(m, []string{login})[0]
}
