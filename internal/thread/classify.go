// Package thread turns the raw messages of a mail thread into the ordered,
// normalized context used for drafting a reply, and works out who a reply
// should go to.
package thread

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Role says whether a message belongs to the mailbox owner.
type Role string

const (
	RoleSelf     Role = "self"
	RoleExternal Role = "external"
)

// Classifier decides the role of a message from its From and To headers.
type Classifier func(from, to string) Role

// DefaultClassifier is the substring heuristic: a message is the owner's when
// "me" occurs anywhere in From+To. Addresses such as james@example.com match
// too; use AddressClassifier when the owner's addresses are known.
var DefaultClassifier = SubstringClassifier("me")

// SubstringClassifier returns RoleSelf when marker occurs, case-insensitively,
// in the concatenation of from and to.
func SubstringClassifier(marker string) Classifier {
	marker = strings.ToLower(marker)
	return func(from, to string) Role {
		if strings.Contains(strings.ToLower(from+to), marker) {
			return RoleSelf
		}
		return RoleExternal
	}
}

// AddressClassifier returns RoleSelf when the sender address equals one of
// the given owner addresses. The To header is not consulted.
func AddressClassifier(addresses ...string) Classifier {
	own := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			own[a] = struct{}{}
		}
	}

	return func(from, _ string) Role {
		if _, ok := own[senderAddress(from)]; ok {
			return RoleSelf
		}
		return RoleExternal
	}
}

func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(from), "<>"))
}
