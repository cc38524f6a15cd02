package network

import "github.com/gofrs/uuid"

// Uid is a session id handed out by the rendezvous.
type Uid string

const EmptyUid Uid = ""

func NewUid() Uid { return Uid(uuid.Must(uuid.NewV4()).String()) }

func ValidUid(u Uid) bool {
	_, err := uuid.FromString(string(u))
	return err == nil
}

func (u Uid) String() string { return string(u) }

// Short is the id prefix for logs.
func (u Uid) Short() string {
	if len(u) > 8 {
		return string(u[:8])
	}
	return string(u)
}
