package conversation

import (
	"sort"
	"strings"
)

const separator = "_"

// Key identifies the conversation between an unordered pair of participants.
type Key string

func (k Key) String() string {
	return string(k)
}

// DeriveKey sorts both participant ids and joins them with an underscore, so
// DeriveKey(a, b) == DeriveKey(b, a). Equal ids are not rejected.
func DeriveKey(idA, idB string) Key {
	ids := []string{idA, idB}
	sort.Strings(ids)
	return Key(strings.Join(ids, separator))
}
