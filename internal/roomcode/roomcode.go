// Package roomcode generates the short, unambiguous room codes and host
// secrets used to identify and authenticate against a room.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// alphabet excludes 0/O/1/I so codes read unambiguously aloud or on screen.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength    = 4
	hostKeyLength = 24
)

// Generator issues unique room codes by rejection sampling and disposes of
// them when a room is torn down, the way game/idgen.go's Idgen holds a
// locked set of issued IDs.
type Generator struct {
	mu    sync.Mutex
	inUse map[string]struct{}
}

// NewGenerator returns a Generator with no codes in use.
func NewGenerator() *Generator {
	return &Generator{inUse: make(map[string]struct{})}
}

// NextCode rejection-samples a fresh 4-character room code from alphabet,
// retrying on collision with any code currently in use.
func (g *Generator) NextCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < 10000; attempt++ {
		candidate, err := randomString(alphabet, codeLength)
		if err != nil {
			return "", err
		}
		if _, taken := g.inUse[candidate]; taken {
			continue
		}
		g.inUse[candidate] = struct{}{}
		return candidate, nil
	}
	return "", fmt.Errorf("roomcode: exhausted attempts generating a unique code")
}

// Release frees a code so it can be reissued once its room is gone.
func (g *Generator) Release(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inUse, code)
}

// NewHostKey returns an opaque 24-character random secret proving host role.
// Host keys are not deduplicated against each other; collision odds over the
// base-32-ish alphabet at this length are negligible and keys are never used
// as map keys the way room codes are.
func NewHostKey() (string, error) {
	return randomString(alphabet, hostKeyLength)
}

func randomString(chars string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = chars[int(b)%len(chars)]
	}
	return string(out), nil
}
