package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Entity id prefixes. External ids are prefix + 12 hex characters of a
// random 128-bit value; callers rely on probabilistic uniqueness, there
// is no lookup against the store.
const (
	PrefixShop   = "SHOP_"
	PrefixItem   = "ITEM_"
	PrefixSale   = "SALE_"
	PrefixDebt   = "DEBT_"
	PrefixDevice = "DEV_"
	PrefixKey    = "KEY_"
	PrefixApp    = "APP_"
)

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	keyGroups    = 4
	keyGroupSize = 4
)

// NewID returns prefix + 12 hex characters drawn from a random UUID.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + hex.EncodeToString(u[:6])
}

// NewProductKey generates a human-communicated license token of four
// dash-separated groups of four uppercase alphanumeric characters. It
// uses the crypto random source, not the general-purpose one.
func NewProductKey() (string, error) {
	raw := make([]byte, keyGroups*keyGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	groups := make([]string, keyGroups)
	for g := 0; g < keyGroups; g++ {
		var b strings.Builder
		for i := 0; i < keyGroupSize; i++ {
			// 36 does not divide 256 evenly; the bias is ~0.4% per
			// character and irrelevant for a license token.
			c := raw[g*keyGroupSize+i] % byte(len(keyAlphabet))
			b.WriteByte(keyAlphabet[c])
		}
		groups[g] = b.String()
	}
	return strings.Join(groups, "-"), nil
}

// MaskProductKey hides all but the final group of a product key.
func MaskProductKey(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) != keyGroups {
		return strings.Repeat("*", len(key))
	}
	masked := make([]string, keyGroups)
	for i := 0; i < keyGroups-1; i++ {
		masked[i] = strings.Repeat("*", len(parts[i]))
	}
	masked[keyGroups-1] = parts[keyGroups-1]
	return strings.Join(masked, "-")
}
