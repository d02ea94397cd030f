package pastes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	t.Run("fixed length and alphabet", func(t *testing.T) {
		for range 100 {
			id := NewID()
			assert.Len(t, id, idLength)
			for _, c := range id {
				assert.True(t, strings.ContainsRune(idAlphabet, c), "unexpected character %q in id %q", c, id)
			}
		}
	})

	t.Run("no repeats in a small sample", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 10000 {
			id := NewID()
			assert.False(t, seen[id], "id %q generated twice", id)
			seen[id] = true
		}
	})
}
