package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Fingerprint produces a short stable hash of normalized parameters for use
// as a cache key segment. encoding/json sorts map keys, so identical logical
// parameter sets always produce identical fingerprints.
func Fingerprint(params map[string]interface{}) string {
	b, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params only happen on programmer error; fall back
		// to hashing the error text so the key is still deterministic.
		b = []byte(err.Error())
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])[:12]
}

// NormalizeStrings lowercases, trims, and sorts a copy of the given values so
// that parameter order never changes the fingerprint.
func NormalizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
