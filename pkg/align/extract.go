// Package align reconciles the run log against the input table,
// extracting tagged spans from raw responses into new table columns.
package align

import (
	"regexp"
	"strings"
	"sync"
)

var (
	tagMu       sync.RWMutex
	tagPatterns = make(map[string]*regexp.Regexp)
)

// tagPattern compiles and caches the matcher for one tag name.
func tagPattern(tag string) *regexp.Regexp {
	tagMu.RLock()
	re, ok := tagPatterns[tag]
	tagMu.RUnlock()
	if ok {
		return re
	}

	tagMu.Lock()
	defer tagMu.Unlock()
	if re, ok = tagPatterns[tag]; ok {
		return re
	}
	re = regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(tag) + `>(.*?)</` + regexp.QuoteMeta(tag) + `>`)
	tagPatterns[tag] = re
	return re
}

// ExtractTag returns the trimmed content of the first <tag>...</tag>
// span in text, or the empty string when no such span exists. Models
// sometimes emit several spans; only the first is trusted.
func ExtractTag(text, tag string) string {
	m := tagPattern(tag).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
