package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainRunReport prefixes run report digests.
// The version suffix allows a later algorithm change.
const DomainRunReport = "flint/run-report/v1"

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
