// Package identity derives the stable content identifier used for
// deduplication. The hash covers only meaning-bearing fields, deliberately
// excluding transport locators (mailbox UID, Message-ID) so the same logical
// message re-fetched under a different locator collapses to one identity.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Compute returns the hex SHA-256 of the canonical JSON encoding of exactly
// these five fields. encoding/json sorts map keys, which gives us the
// canonical form for free. Pure function: identical inputs always produce
// identical output.
func Compute(sourceType, subject, sender, date, extractedText string) string {
	payload := map[string]string{
		"source_type":    sourceType,
		"subject":        subject,
		"sender":         sender,
		"date":           date,
		"extracted_text": extractedText,
	}
	canonical, _ := json.Marshal(payload)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
