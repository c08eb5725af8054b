package vision

import (
	"strings"
)

// ExtractName derives the drug name from a name-mode model reply. The reply is
// trimmed of surrounding whitespace and otherwise left as the model wrote it;
// an empty result means extraction failed.
func ExtractName(raw string) string {
	return strings.TrimSpace(raw)
}
