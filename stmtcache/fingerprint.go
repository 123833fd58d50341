package stmtcache

import (
	"encoding/binary"
	"strings"
	"unicode"

	"github.com/spaolacci/murmur3"
	"golang.org/x/text/unicode/norm"
)

// StmtID identifies a prepared statement. It is the fingerprint of the
// statement text, so every session preparing the same text gets the same
// id.
type StmtID uint32

// normalize folds the text of a statement to its NFC form and squeezes
// whitespace outside of quotes to single blanks. Case is kept; quoted
// identifiers and string literals are case sensitive.
func normalize(sql string) string {
	sql = norm.NFC.String(sql)
	var b strings.Builder
	b.Grow(len(sql))
	var quote rune
	pendingSpace := false
	for _, r := range sql {
		if quote == 0 && unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		switch {
		case quote == 0 && (r == '\'' || r == '"' || r == '`'):
			quote = r
		case quote == r:
			quote = 0
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), "; ")
}

func genHashMurMur(key []byte) uint32 {
	h := murmur3.New128()
	h.Write(key)
	hash := h.Sum(nil)
	return binary.LittleEndian.Uint32(hash)
}

// Fingerprint returns the statement id of sql.
func Fingerprint(sql string) StmtID {
	return StmtID(genHashMurMur([]byte(normalize(sql))))
}
