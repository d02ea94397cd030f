package pastes

import "crypto/rand"

// idAlphabet is restricted to lowercase letters and digits so ids survive
// case-insensitive filesystems and copy-paste over any channel.
const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8
)

// NewID generates a random public identifier. Ids address unlisted content,
// so they come from crypto/rand rather than a predictable source. Uniqueness
// is enforced by the repository's primary key, not here.
func NewID() string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform randomness source is
		// broken; nothing sensible can continue.
		panic("pastes: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
