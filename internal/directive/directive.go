// Package directive extracts inventory instructions embedded in free-text
// memo or reference fields. Two encodings are understood:
//
//	INV{sku: "WIDGET", qty: 5, fromWh: "MAIN", toWh: "B"}
//	INV: sku=WIDGET; qty=5; dir=in; wh=MAIN
//
// Anything else, including malformed directives, parses as KindNone.
package directive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind tags which encoding produced a Parsed value.
type Kind int

const (
	KindNone Kind = iota
	KindJSON
	KindKeyValue
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindKeyValue:
		return "key-value"
	default:
		return "none"
	}
}

// Parsed is the raw result of parsing one line of text. Fields keys keep the
// spelling found in the text; Normalize maps them to canonical names.
type Parsed struct {
	Kind   Kind
	Fields map[string]string
	// Line is the zero-based line the directive was found on.
	Line int
}

// Found reports whether a directive was recognized.
func (p Parsed) Found() bool {
	return p.Kind != KindNone
}

var (
	jsonStart = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])INV\s*:?\s*\{`)
	kvStart   = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])INV:\s*`)
	bareKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	kvSep     = regexp.MustCompile(`[;|,]`)
)

// Parse scans text for the first directive. The JSON encoding is tried
// before the key-value encoding.
func Parse(text string) Parsed {
	for i, line := range strings.Split(text, "\n") {
		if p := parseLine(line); p.Found() {
			p.Line = i
			return p
		}
	}
	return Parsed{}
}

// ParseAll returns one directive per line that carries one.
func ParseAll(text string) []Parsed {
	var out []Parsed
	for i, line := range strings.Split(text, "\n") {
		if p := parseLine(line); p.Found() {
			p.Line = i
			out = append(out, p)
		}
	}
	return out
}

func parseLine(line string) Parsed {
	if fields, ok := parseJSON(line); ok {
		return Parsed{Kind: KindJSON, Fields: fields}
	}
	if fields, ok := parseKeyValue(line); ok {
		return Parsed{Kind: KindKeyValue, Fields: fields}
	}
	return Parsed{}
}

func parseJSON(line string) (map[string]string, bool) {
	loc := jsonStart.FindStringIndex(line)
	if loc == nil {
		return nil, false
	}
	open := loc[1] - 1
	end := matchBrace(line, open)
	if end < 0 {
		return nil, false
	}
	body := quoteKeys(line[open : end+1])

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = strings.TrimSpace(val)
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = fmt.Sprint(val)
		case nil:
		default:
			// nested objects and arrays are not part of the grammar
			return nil, false
		}
	}
	return fields, true
}

// matchBrace returns the index of the brace closing the one at open,
// skipping braces inside double-quoted strings.
func matchBrace(s string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// quoteKeys quotes bare object keys. Text inside string literals is copied
// unchanged.
func quoteKeys(body string) string {
	var b strings.Builder
	start := 0
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
				b.WriteString(body[start : i+1])
				start = i + 1
			}
			continue
		}
		if c == '"' {
			b.WriteString(bareKey.ReplaceAllString(body[start:i], `$1"$2":`))
			start = i
			inString = true
		}
	}
	if start < len(body) {
		if inString {
			b.WriteString(body[start:])
		} else {
			b.WriteString(bareKey.ReplaceAllString(body[start:], `$1"$2":`))
		}
	}
	return b.String()
}

func parseKeyValue(line string) (map[string]string, bool) {
	loc := kvStart.FindStringIndex(line)
	if loc == nil {
		return nil, false
	}
	fields := make(map[string]string)
	for _, part := range kvSep.Split(line[loc[1]:], -1) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if k == "" || strings.ContainsAny(k, " \t") {
			continue
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
