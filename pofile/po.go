// Package pofile implements a reader for GNU gettext PO/POT catalogs,
// sufficient for translation statistics. The sync pipeline itself
// treats catalogs as opaque files; this package only backs the status
// reporting around it.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is a single message in a catalog.
type Entry struct {
	// MsgCtxt is the optional message context.
	MsgCtxt string
	// MsgID is the untranslated string. Empty for the header entry.
	MsgID string
	// MsgIDPlural is the untranslated plural form, if any.
	MsgIDPlural string
	// MsgStr is the translation (singular or only form).
	MsgStr string
	// MsgStrPlural maps plural index to translation.
	MsgStrPlural map[int]string
	// Fuzzy marks entries flagged "#, fuzzy".
	Fuzzy bool
	// Obsolete marks entries prefixed "#~".
	Obsolete bool
}

// Translated reports whether the entry carries a usable translation.
// Fuzzy entries do not count: gettext tooling ignores them at runtime.
func (e *Entry) Translated() bool {
	if e.MsgID == "" || e.Fuzzy {
		return false
	}
	if e.MsgIDPlural != "" {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, s := range e.MsgStrPlural {
			if s == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// File is a parsed catalog.
type File struct {
	// Header is the msgid "" metadata entry, if present.
	Header *Entry
	// Entries are the message entries in file order.
	Entries []*Entry
}

// HeaderField returns a header field value by name, or "".
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// Stats counts the non-obsolete message entries by state.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		total++
		switch {
		case e.Fuzzy:
			fuzzy++
		case e.Translated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

// ParseFile reads and parses the catalog at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse reads a catalog from r.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *Entry
	var field string // which msg* field continuation strings append to
	line := 0

	flush := func() {
		if cur == nil {
			return
		}
		if cur.MsgID == "" && !cur.Obsolete && f.Header == nil {
			f.Header = cur
		} else {
			f.Entries = append(f.Entries, cur)
		}
		cur = nil
		field = ""
	}

	appendTo := func(e *Entry, field, s string) {
		switch {
		case field == "msgctxt":
			e.MsgCtxt += s
		case field == "msgid":
			e.MsgID += s
		case field == "msgid_plural":
			e.MsgIDPlural += s
		case field == "msgstr":
			e.MsgStr += s
		case strings.HasPrefix(field, "msgstr["):
			idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(field, "msgstr["), "]"))
			if err == nil {
				if e.MsgStrPlural == nil {
					e.MsgStrPlural = make(map[int]string)
				}
				e.MsgStrPlural[idx] += s
			}
		}
	}

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}

		obsolete := false
		if strings.HasPrefix(text, "#~") {
			obsolete = true
			text = strings.TrimSpace(strings.TrimPrefix(text, "#~"))
		}

		if cur == nil {
			cur = &Entry{}
		}
		cur.Obsolete = cur.Obsolete || obsolete

		switch {
		case strings.HasPrefix(text, "#,"):
			for _, flag := range strings.Split(text[2:], ",") {
				if strings.TrimSpace(flag) == "fuzzy" {
					cur.Fuzzy = true
				}
			}

		case strings.HasPrefix(text, "#"):
			// translator/extracted comments and references: not needed
			// for statistics

		case strings.HasPrefix(text, "\""):
			if field == "" {
				return nil, fmt.Errorf("line %d: continuation string outside entry", line)
			}
			s, err := unquote(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			appendTo(cur, field, s)

		default:
			kw, rest, _ := strings.Cut(text, " ")
			s, err := unquote(strings.TrimSpace(rest))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			field = kw
			appendTo(cur, field, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return f, nil
}

// unquote decodes one quoted PO string segment.
func unquote(s string) (string, error) {
	if len(s) < 2 || !strings.HasPrefix(s, "\"") || !strings.HasSuffix(s, "\"") {
		return "", fmt.Errorf("malformed string %q", s)
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
