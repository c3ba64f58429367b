// Package resolver extracts a best-guess customer contact (email and/or
// phone) from a Missive conversation payload.
//
// The heuristic is best-effort by design: conversations arrive in whatever
// shape the inbox client produced, and a conversation with no usable
// contact resolves to an empty ContactInfo rather than an error.
package resolver

import "strings"

// Conversation is the subset of a Missive conversation the resolver reads.
// Messages arrive oldest-first, as the inbox client returns them.
type Conversation struct {
	Messages []Message `json:"messages"`
	Contacts []Contact `json:"contacts"`
}

// Message is a single message in a conversation thread.
type Message struct {
	FromField *AddressField `json:"from_field"`
}

// AddressField holds a sender address.
type AddressField struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Contact is an entry in a conversation's contact list.
type Contact struct {
	Address      string   `json:"address"`
	PhoneNumbers []string `json:"phone_numbers"`
}

// ContactInfo is the resolved contact. Either field may be empty; both
// empty means the conversation had no usable contact and search must not
// run.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Empty reports whether no contact was found at all.
func (c ContactInfo) Empty() bool {
	return c.Email == "" && c.Phone == ""
}

// Resolver resolves conversation contacts, filtering out the support
// organization's own addresses.
type Resolver struct {
	internalSuffix string // "@" + internal domain, lowercase
}

// New creates a resolver that treats addresses under internalDomain
// (e.g. "tortelen.nl") as staff addresses, never customer contacts.
func New(internalDomain string) *Resolver {
	return &Resolver{
		internalSuffix: "@" + strings.ToLower(strings.TrimPrefix(internalDomain, "@")),
	}
}

// IsInternal reports whether the address belongs to the support
// organization's own domain.
func (r *Resolver) IsInternal(address string) bool {
	if address == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(address), r.internalSuffix)
}

// Resolve produces at most one email and one phone from the conversation,
// in this precedence, stopping at the first success per field:
//
//  1. Newest message whose sender is external → email.
//  2. Contact list, in order: first external address → email (if still
//     unset); first phone number on any contact → phone (regardless of
//     whether an email was found).
//  3. Oldest message's sender, if external → email (last resort).
//
// A conversation with no messages and no contacts resolves to the zero
// ContactInfo.
func (r *Resolver) Resolve(conv *Conversation) ContactInfo {
	var info ContactInfo
	if conv == nil {
		return info
	}

	// Messages arrive oldest-first; walk backwards for the newest
	// external sender.
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		addr := senderAddress(conv.Messages[i])
		if addr != "" && !r.IsInternal(addr) {
			info.Email = addr
			break
		}
	}

	// Contact list: email fallback plus phone capture. Phone capture does
	// not depend on the email having been found.
	for _, contact := range conv.Contacts {
		if info.Email == "" && contact.Address != "" && !r.IsInternal(contact.Address) {
			info.Email = contact.Address
		}
		if info.Phone == "" && len(contact.PhoneNumbers) > 0 {
			info.Phone = contact.PhoneNumbers[0]
		}
	}

	// Last resort: the oldest message's sender, external only.
	if info.Email == "" && len(conv.Messages) > 0 {
		if addr := senderAddress(conv.Messages[0]); addr != "" && !r.IsInternal(addr) {
			info.Email = addr
		}
	}

	return info
}

func senderAddress(m Message) string {
	if m.FromField == nil {
		return ""
	}
	return m.FromField.Address
}
