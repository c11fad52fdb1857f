package model

import (
	"regexp"
	"strconv"
)

// NameSeparator joins a label and its conflict-resolution counter.
const NameSeparator = "~"

var counterSuffix = regexp.MustCompile(regexp.QuoteMeta(NameSeparator) + `\d+$`)

// ResolveName returns name if it is not taken, otherwise the first free
// label of the form <base>~2, <base>~3, ... where base is name with any
// existing ~N suffix removed.
func ResolveName(name string, taken map[string]struct{}) string {
	if _, ok := taken[name]; !ok {
		return name
	}

	base := counterSuffix.ReplaceAllString(name, "")
	for n := 2; ; n++ {
		candidate := base + NameSeparator + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
