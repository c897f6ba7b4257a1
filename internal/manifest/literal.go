package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds container nesting.
const maxDepth = 64

// ParseLiteral parses a single literal. Dicts become map[string]any with
// non-string keys formatted by fmt.Sprint, lists, tuples and sets become
// []any, integers int64, floats float64, None nil.
func ParseLiteral(src string) (any, error) {
	p := &parser{src: strings.TrimPrefix(src, "\ufeff")}
	p.skip()
	if p.eof() {
		return nil, p.errorf("empty input")
	}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after literal", p.peek())
	}
	return v, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	consumed := p.src[:min(p.pos, len(p.src))]
	return &SyntaxError{
		Line:   1 + strings.Count(consumed, "\n"),
		Column: 1 + utf8.RuneCountInString(consumed[strings.LastIndexByte(consumed, '\n')+1:]),
		Msg:    fmt.Sprintf(format, args...),
	}
}

// skip consumes whitespace, comments and line continuations.
func (p *parser) skip() {
	for !p.eof() {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			p.pos++
		case c == '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '\\' && strings.HasPrefix(p.src[p.pos+1:], "\n"):
			p.pos += 2
		case c == '\\' && strings.HasPrefix(p.src[p.pos+1:], "\r\n"):
			p.pos += 3
		default:
			return
		}
	}
}

func (p *parser) value() (any, error) {
	switch c := p.peek(); {
	case c == '{':
		return p.container(p.dictOrSet)
	case c == '[':
		return p.container(p.list)
	case c == '(':
		return p.container(p.tuple)
	case c == '\'' || c == '"':
		return p.stringValue()
	case c == '+' || c == '-' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		start := p.pos
		for !p.eof() && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		word := p.src[start:p.pos]
		if p.peek() == '\'' || p.peek() == '"' {
			p.pos = start
			return p.stringValue()
		}
		switch word {
		case "True":
			return true, nil
		case "False":
			return false, nil
		case "None":
			return nil, nil
		}
		p.pos = start
		return nil, p.errorf("unsupported name %q", word)
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *parser) container(fn func() (any, error)) (any, error) {
	if p.depth >= maxDepth {
		return nil, p.errorf("nesting deeper than %d", maxDepth)
	}
	p.depth++
	defer func() { p.depth-- }()
	p.pos++ // opening bracket
	return fn()
}

// items parses comma separated values up to the closing byte.
// It reports whether the sequence had a comma.
func (p *parser) items(closing byte, first []any) ([]any, bool, error) {
	values := first
	sawComma := false
	for {
		p.skip()
		if p.eof() {
			return nil, false, p.errorf("missing %q", closing)
		}
		if p.peek() == closing {
			p.pos++
			return values, sawComma, nil
		}
		if len(values) > 0 && !sawComma {
			return nil, false, p.errorf("expected ',' or %q, got %q", closing, p.peek())
		}
		v, err := p.value()
		if err != nil {
			return nil, false, err
		}
		values = append(values, v)
		p.skip()
		sawComma = false
		if p.peek() == ',' {
			p.pos++
			sawComma = true
		}
	}
}

func (p *parser) list() (any, error) {
	values, _, err := p.items(']', []any{})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (p *parser) tuple() (any, error) {
	p.skip()
	if p.peek() == ')' {
		p.pos++
		return []any{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	switch p.peek() {
	case ')':
		// Parenthesized expression, not a tuple.
		p.pos++
		return first, nil
	case ',':
		p.pos++
	default:
		return nil, p.errorf("expected ',' or ')', got %q", p.peek())
	}
	rest, _, err := p.items(')', nil)
	if err != nil {
		return nil, err
	}
	return append([]any{first}, rest...), nil
}

func (p *parser) dictOrSet() (any, error) {
	p.skip()
	if p.peek() == '}' {
		p.pos++
		return map[string]any{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.peek() != ':' {
		// Set literal.
		if p.peek() == ',' {
			p.pos++
			rest, _, err := p.items('}', nil)
			if err != nil {
				return nil, err
			}
			return append([]any{first}, rest...), nil
		}
		if p.peek() == '}' {
			p.pos++
			return []any{first}, nil
		}
		return nil, p.errorf("expected ':' or ',', got %q", p.peek())
	}

	dict := make(map[string]any)
	key := first
	for {
		k, err := p.key(key)
		if err != nil {
			return nil, err
		}
		p.pos++ // ':'
		p.skip()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		dict[k] = v

		p.skip()
		switch p.peek() {
		case '}':
			p.pos++
			return dict, nil
		case ',':
			p.pos++
		default:
			if p.eof() {
				return nil, p.errorf("missing '}'")
			}
			return nil, p.errorf("expected ',' or '}', got %q", p.peek())
		}

		p.skip()
		if p.peek() == '}' {
			p.pos++
			return dict, nil
		}
		if key, err = p.value(); err != nil {
			return nil, err
		}
		p.skip()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':', got %q", p.peek())
		}
	}
}

func (p *parser) key(v any) (string, error) {
	switch k := v.(type) {
	case string:
		return k, nil
	case map[string]any:
		return "", p.errorf("unhashable dict key")
	case []any:
		// Tuple keys.
		return fmt.Sprint(k...), nil
	case nil:
		return "None", nil
	case bool:
		if k {
			return "True", nil
		}
		return "False", nil
	default:
		return fmt.Sprint(k), nil
	}
}

// stringValue parses one or more adjacent string literals and concatenates them.
func (p *parser) stringValue() (any, error) {
	var b strings.Builder
	for {
		s, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		b.WriteString(s)

		save := p.pos
		p.skip()
		if !p.atString() {
			p.pos = save
			return b.String(), nil
		}
	}
}

func (p *parser) atString() bool {
	i := p.pos
	for n := 0; i < len(p.src) && n < 2 && strings.IndexByte("rRuUbB", p.src[i]) >= 0; n++ {
		i++
	}
	return i < len(p.src) && (p.src[i] == '\'' || p.src[i] == '"')
}

func (p *parser) stringLiteral() (string, error) {
	raw := false
	for !p.eof() && p.src[p.pos] != '\'' && p.src[p.pos] != '"' {
		switch p.src[p.pos] {
		case 'r', 'R':
			raw = true
		case 'u', 'U', 'b', 'B':
		case 'f', 'F':
			return "", p.errorf("f-strings are not literals")
		default:
			return "", p.errorf("invalid string prefix %q", p.src[p.pos])
		}
		p.pos++
	}
	if p.eof() {
		return "", p.errorf("missing string quote")
	}

	quote := p.src[p.pos : p.pos+1]
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	start := p.pos
	p.pos += len(quote)

	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return "", p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], quote) {
			p.pos += len(quote)
			return b.String(), nil
		}
		c := p.src[p.pos]
		if c == '\n' && len(quote) == 1 {
			return "", p.errorf("newline in string")
		}
		if c != '\\' {
			b.WriteByte(c)
			p.pos++
			continue
		}
		if p.pos+1 >= len(p.src) {
			p.pos = start
			return "", p.errorf("unterminated string")
		}
		if raw {
			b.WriteString(p.src[p.pos : p.pos+2])
			p.pos += 2
			continue
		}
		if err := p.escape(&b); err != nil {
			return "", err
		}
	}
}

var simpleEscapes = map[byte]string{
	'\n': "",
	'\\': "\\",
	'\'': "'",
	'"':  "\"",
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
}

// escape decodes the escape sequence at p.pos, which points at a backslash.
func (p *parser) escape(b *strings.Builder) error {
	c := p.src[p.pos+1]
	if strings.HasPrefix(p.src[p.pos+1:], "\r\n") {
		p.pos += 3
		return nil
	}
	if s, ok := simpleEscapes[c]; ok {
		b.WriteString(s)
		p.pos += 2
		return nil
	}

	switch c {
	case '0', '1', '2', '3', '4', '5', '6', '7':
		end := p.pos + 1
		for end < len(p.src) && end < p.pos+4 && p.src[end] >= '0' && p.src[end] <= '7' {
			end++
		}
		n, _ := strconv.ParseUint(p.src[p.pos+1:end], 8, 32)
		b.WriteRune(rune(n))
		p.pos = end
		return nil
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		digits := p.src[p.pos+2 : min(p.pos+2+width, len(p.src))]
		n, err := strconv.ParseUint(digits, 16, 32)
		if len(digits) != width || err != nil || n > utf8.MaxRune {
			return p.errorf("invalid \\%c escape", c)
		}
		b.WriteRune(rune(n))
		p.pos += 2 + width
		return nil
	case 'N':
		return p.errorf("named unicode escapes are not supported")
	}

	// Unknown escapes are kept verbatim.
	b.WriteByte('\\')
	p.pos++
	return nil
}

func (p *parser) number() (any, error) {
	start := p.pos
	negative := false
	for p.peek() == '+' || p.peek() == '-' {
		if p.peek() == '-' {
			negative = !negative
		}
		p.pos++
		p.skip()
	}

	tokStart := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isIdentPart(c) || c == '.' {
			p.pos++
			continue
		}
		if (c == '+' || c == '-') && p.pos > tokStart && strings.ContainsRune("eE", rune(p.src[p.pos-1])) &&
			!strings.HasPrefix(strings.ToLower(p.src[tokStart:]), "0x") {
			p.pos++
			continue
		}
		break
	}
	tok := p.src[tokStart:p.pos]
	if tok == "" || !(isDigit(tok[0]) || (tok[0] == '.' && len(tok) > 1 && isDigit(tok[1]))) {
		p.pos = start
		return nil, p.errorf("invalid number")
	}

	if !strings.ContainsAny(tok, ".eEjJ") || strings.HasPrefix(strings.ToLower(tok), "0x") {
		n, err := strconv.ParseInt(tok, 0, 64)
		if err == nil {
			if negative {
				n = -n
			}
			return n, nil
		}
		if !isRangeError(err) {
			p.pos = start
			return nil, p.errorf("invalid number %q", tok)
		}
	}

	if strings.ContainsAny(tok, "jJ") {
		p.pos = start
		return nil, p.errorf("complex numbers are not supported")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(tok, "_", ""), 64)
	if err != nil && !isRangeError(err) {
		p.pos = start
		return nil, p.errorf("invalid number %q", tok)
	}
	if negative {
		f = math.Copysign(f, -1)
	}
	return f, nil
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
