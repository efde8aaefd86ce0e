package registry

import (
	"fmt"
	"regexp"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SafeNames maps canonical action names to MCP-safe tool names. Each name
// gets an "sdk_" prefix with punctuation collapsed to underscores, so
// "card_tables.get_card" becomes "sdk_card_tables_get_card". Collisions
// after sanitizing get a numeric suffix ("_2", "_3", ...) in input order,
// keeping the mapping a bijection. The result maps safe name back to the
// original.
func SafeNames(names []string) map[string]string {
	safeToOriginal := make(map[string]string, len(names))
	for _, raw := range names {
		base := "sdk_" + unsafeNameChars.ReplaceAllString(raw, "_")
		name := base
		for i := 2; ; i++ {
			if _, taken := safeToOriginal[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, i)
		}
		safeToOriginal[name] = raw
	}

	return safeToOriginal
}
