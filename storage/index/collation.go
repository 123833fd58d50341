package index

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation orders strings of a key part.
type Collation interface {
	Name() string
	Compare(a, b string) int
}

type binaryCollation struct {
	name string
}

func (c *binaryCollation) Name() string { return c.name }

func (c *binaryCollation) Compare(a, b string) int {
	return strings.Compare(a, b)
}

type icuCollation struct {
	name     string
	mutex    sync.Mutex
	collator *collate.Collator
}

func (c *icuCollation) Name() string { return c.name }

func (c *icuCollation) Compare(a, b string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.collator.CompareString(a, b)
}

// NewCollation builds the comparator of a collation row. Unknown types
// yield nil.
func NewCollation(name string, collType string, locale string, ignoreCase bool) Collation {
	switch strings.ToUpper(collType) {
	case "BINARY", "NONE", "":
		return &binaryCollation{name: name}
	case "ICU":
		tag := language.Und
		if locale != "" {
			if parsed, err := language.Parse(locale); err == nil {
				tag = parsed
			}
		}
		var opts []collate.Option
		if ignoreCase {
			opts = append(opts, collate.IgnoreCase)
		}
		return &icuCollation{name: name, collator: collate.New(tag, opts...)}
	}
	return nil
}
