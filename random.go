package dockertest

import (
	"crypto/rand"
	"math/big"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz"

// randomString returns an n-character string drawn uniformly from a..z.
// Used for run IDs and the random suffix on container/volume names.
func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomAlphabet))))
		if err != nil {
			// crypto/rand failures are effectively unrecoverable on any
			// supported platform; panic rather than silently weaken
			// uniqueness guarantees on container/network names.
			panic("dockertest: crypto/rand unavailable: " + err.Error())
		}
		b[i] = randomAlphabet[idx.Int64()]
	}
	return string(b)
}
