package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// EventKey is the identifier of a per-event record: {txHash}-{logIndex}.
// Unique per chain because a log index is unique within its transaction.
func EventKey(txHash string, logIndex int64) string {
	return fmt.Sprintf("%s-%d", txHash, logIndex)
}

// TraderKey is the membership key of an account within a bucket: {bucketKey}-{account}.
// Accounts are lower-cased so checksummed and plain hex addresses collapse to one trader.
func TraderKey(bucketKey, account string) string {
	return bucketKey + "-" + strings.ToLower(account)
}

// Digest computes a deterministic SHA256 over length-prefixed parts.
// Returns hex-encoded hash (64 characters).
func Digest(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
