// Package python extracts pinned versions from pip requirements files.
package python

import (
	"regexp"
	"strings"
	"sync"

	"github.com/quipucords/chaski/pkg/deps"
)

var (
	pinMu    sync.Mutex
	pinCache = map[string]*regexp.Regexp{}
)

// pinPattern matches "<name>==<version>" at the start of a line.
func pinPattern(name string) *regexp.Regexp {
	pinMu.Lock()
	defer pinMu.Unlock()
	if re, ok := pinCache[name]; ok {
		return re
	}
	re := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `[ \t]*==[ \t]*([0-9][0-9.]*)`)
	pinCache[name] = re
	return re
}

// Pin returns the version pinned for name in text.
func Pin(text, name string) (string, bool) {
	m := pinPattern(name).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSuffix(m[1], "."), true
}

// Pins extracts the pinned version of every name present in text.
// Names without a pin are omitted from the snapshot; missing lists them in
// the order given.
func Pins(text string, names []string) (found deps.Snapshot, missing []string) {
	found = deps.Snapshot{}
	for _, name := range names {
		if v, ok := Pin(text, name); ok {
			found[name] = v
		} else {
			missing = append(missing, name)
		}
	}
	return found, missing
}
