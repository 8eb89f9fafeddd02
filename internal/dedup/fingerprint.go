package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint computes the stable content hash identifying "the same"
// alert: tenant, title, and the source payload with keys sorted so map
// iteration order never changes the result.
func Fingerprint(tenantID, title string, sourceData map[string]interface{}) string {
	keys := make([]string, 0, len(sourceData))
	for k := range sourceData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(tenantID)
	sb.WriteString("|")
	sb.WriteString(title)
	for _, k := range keys {
		sb.WriteString("|")
		sb.WriteString(k)
		sb.WriteString("=")
		fmt.Fprintf(&sb, "%v", sourceData[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
