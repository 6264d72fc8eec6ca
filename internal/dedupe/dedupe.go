// Package dedupe collapses near-identical items across and within sources
// using a normalized title+content fingerprint.
package dedupe

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/channelwatch/channelwatch/internal/content"
)

// fingerprintBodyLen is how much normalized body text joins the title in
// the fingerprint. Long enough to distinguish distinct articles, short
// enough that near-identical reposts collapse.
const fingerprintBodyLen = 100

// Deduplicate removes duplicate items, keeping the first occurrence.
// An item is a duplicate if its fingerprint or its native id has been seen
// earlier in the same pass. Order is preserved.
func Deduplicate(items []content.Item) []content.Item {
	seenPrints := make(map[string]struct{}, len(items))
	seenIDs := make(map[string]struct{}, len(items))

	out := make([]content.Item, 0, len(items))
	for _, it := range items {
		print := Fingerprint(it)
		if _, ok := seenPrints[print]; ok {
			continue
		}
		if it.NativeID != "" {
			key := string(it.Source) + ":" + it.NativeID
			if _, ok := seenIDs[key]; ok {
				continue
			}
			seenIDs[key] = struct{}{}
		}
		seenPrints[print] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Fingerprint computes the dedup fingerprint for an item: a hash of the
// normalized title plus a prefix of the normalized body. Items with empty
// title and body fingerprint identically and collapse together.
func Fingerprint(it content.Item) string {
	body := normalize(it.Body)
	if len(body) > fingerprintBodyLen {
		body = body[:fingerprintBodyLen]
	}
	sum := sha1.Sum([]byte(normalize(it.Title) + "|" + body))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
