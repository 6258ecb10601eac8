package strategies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultMaxLiteralDepth bounds nesting of sequences and mappings.
const DefaultMaxLiteralDepth = 512

// cancelCheckInterval is how many values are parsed or compared between
// context checks.
const cancelCheckInterval = 4096

// literalKind identifies the type of a parsed literal.
type literalKind int

const (
	kindNull literalKind = iota
	kindBool
	kindNumber
	kindString
	kindList
	kindTuple
	kindSet
	kindMap
)

func (k literalKind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindBool:
		return "bool"
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindList:
		return "list"
	case kindTuple:
		return "tuple"
	case kindSet:
		return "set"
	default:
		return "mapping"
	}
}

// literal is one node of a parsed data literal.
type literal struct {
	kind literalKind

	// raw is the source spelling of a number or keyword.
	raw string
	// integer is set for numbers written without fraction or exponent.
	integer *big.Int
	// float holds the value of every number.
	float float64
	// outOfRange is set when float is an overflowed or underflowed
	// approximation of raw.
	outOfRange bool

	str string

	// items holds sequence and set elements, or mapping keys.
	items []literal
	// values holds mapping values, parallel to items.
	values []literal
}

// literalParseError reports where and why a text is not a literal.
type literalParseError struct {
	Offset int
	Msg    string
}

func (e *literalParseError) Error() string {
	return fmt.Sprintf("literal: at byte %d: %s", e.Offset, e.Msg)
}

// literalParser is a recursive-descent parser for the shared literal
// grammar: numbers, quoted strings, true/false/null (also True/False/None),
// [lists], (tuples), {sets} and {mappings}. Trailing commas are accepted.
type literalParser struct {
	ctx      context.Context
	data     string
	pos      int
	depth    int
	maxDepth int
	parsed   int
}

// parseLiteral parses text as a single literal surrounded by optional
// whitespace.
func parseLiteral(ctx context.Context, text string, maxDepth int) (literal, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxLiteralDepth
	}
	p := &literalParser{ctx: ctx, data: text, maxDepth: maxDepth}

	p.skipWhitespace()
	v, err := p.parseValue()
	if err != nil {
		return literal{}, err
	}
	p.skipWhitespace()
	if p.pos != len(p.data) {
		return literal{}, p.errorf("trailing content after literal")
	}
	return v, nil
}

func (p *literalParser) errorf(format string, args ...any) *literalParseError {
	return &literalParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *literalParser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) pushDepth() error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf("nesting depth %d exceeds maximum %d", p.depth, p.maxDepth)
	}
	return nil
}

func (p *literalParser) popDepth() { p.depth-- }

func (p *literalParser) parseValue() (literal, error) {
	p.parsed++
	if p.parsed%cancelCheckInterval == 0 {
		if err := p.ctx.Err(); err != nil {
			return literal{}, err
		}
	}

	c, ok := p.peek()
	if !ok {
		return literal{}, p.errorf("unexpected end of input")
	}

	switch {
	case c == '[':
		return p.parseSequence(']', kindList)
	case c == '(':
		return p.parseSequence(')', kindTuple)
	case c == '{':
		return p.parseBraced()
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return literal{}, err
		}
		return literal{kind: kindString, str: s}, nil
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

func (p *literalParser) parseKeyword() (literal, error) {
	start := p.pos
	for p.pos < len(p.data) && isIdentByte(p.data[p.pos]) {
		p.pos++
	}
	switch word := p.data[start:p.pos]; word {
	case "true", "True":
		return literal{kind: kindBool, raw: word}, nil
	case "false", "False":
		return literal{kind: kindBool, raw: word}, nil
	case "null", "None":
		return literal{kind: kindNull, raw: word}, nil
	case "":
		return literal{}, p.errorf("unexpected character %q", p.data[p.pos])
	default:
		p.pos = start
		return literal{}, p.errorf("unknown identifier %q", truncate(word, 20))
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseSequence parses a list or tuple. A parenthesized single value
// without a trailing comma is a grouping, not a tuple.
func (p *literalParser) parseSequence(closer byte, kind literalKind) (literal, error) {
	if err := p.pushDepth(); err != nil {
		return literal{}, err
	}
	defer p.popDepth()

	p.pos++ // opener
	out := literal{kind: kind}
	sawComma := false
	for {
		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return literal{}, p.errorf("unterminated %s", kind)
		}
		if c == closer {
			p.pos++
			break
		}
		if len(out.items) > 0 {
			if c != ',' {
				return literal{}, p.errorf("expected ',' or %q, got %q", closer, c)
			}
			p.pos++
			sawComma = true
			p.skipWhitespace()
			if c, ok = p.peek(); ok && c == closer {
				p.pos++
				break
			}
		}
		v, err := p.parseValue()
		if err != nil {
			return literal{}, err
		}
		out.items = append(out.items, v)
	}

	if kind == kindTuple && len(out.items) == 1 && !sawComma {
		return out.items[0], nil
	}
	return out, nil
}

// parseBraced parses "{}" (an empty mapping), a mapping, or a set. The
// first entry decides which.
func (p *literalParser) parseBraced() (literal, error) {
	if err := p.pushDepth(); err != nil {
		return literal{}, err
	}
	defer p.popDepth()

	p.pos++ // '{'
	out := literal{kind: kindMap}
	decided := false
	for {
		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return literal{}, p.errorf("unterminated %s", out.kind)
		}
		if c == '}' {
			p.pos++
			break
		}
		if decided {
			if c != ',' {
				return literal{}, p.errorf("expected ',' or '}', got %q", c)
			}
			p.pos++
			p.skipWhitespace()
			if c, ok = p.peek(); ok && c == '}' {
				p.pos++
				break
			}
		}

		key, err := p.parseValue()
		if err != nil {
			return literal{}, err
		}
		p.skipWhitespace()
		c, _ = p.peek()
		if !decided {
			decided = true
			if c != ':' {
				out.kind = kindSet
			}
		}

		if out.kind == kindSet {
			out.items = append(out.items, key)
			continue
		}
		if c != ':' {
			return literal{}, p.errorf("expected ':' after mapping key")
		}
		p.pos++
		p.skipWhitespace()
		val, err := p.parseValue()
		if err != nil {
			return literal{}, err
		}
		out.items = append(out.items, key)
		out.values = append(out.values, val)
	}

	if out.kind == kindSet {
		out.items = dedupeLiterals(out.items)
	} else {
		out.items, out.values = dedupeKeys(out.items, out.values)
	}
	return out, nil
}

// dedupeLiterals keeps the first occurrence of each element.
func dedupeLiterals(items []literal) []literal {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		k := canonicalKey(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// dedupeKeys keeps the position of the first occurrence of each key and
// the value of the last, matching how dictionary literals evaluate.
func dedupeKeys(keys, values []literal) ([]literal, []literal) {
	index := make(map[string]int, len(keys))
	outKeys := make([]literal, 0, len(keys))
	outVals := make([]literal, 0, len(values))
	for i, k := range keys {
		ck := canonicalKey(k)
		if j, ok := index[ck]; ok {
			outVals[j] = values[i]
			continue
		}
		index[ck] = len(outKeys)
		outKeys = append(outKeys, k)
		outVals = append(outVals, values[i])
	}
	return outKeys, outVals
}

func (p *literalParser) parseString() (string, error) {
	quote := p.data[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.data) {
			return "", p.errorf("unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n':
			return "", p.errorf("newline in string")
		case c == '\\':
			if err := p.parseEscape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.data[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *literalParser) parseEscape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.data) {
		return p.errorf("unterminated escape")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"', '\'', '\\', '/':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '0':
		b.WriteByte(0)
	case 'u':
		r, err := p.parseHex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.data[p.pos:], `\u`) {
			save := p.pos
			p.pos += 2
			lo, err := p.parseHex4()
			if err == nil {
				if combined := utf16.DecodeRune(r, lo); combined != utf8.RuneError {
					b.WriteRune(combined)
					return nil
				}
			}
			p.pos = save
		}
		b.WriteRune(r)
	default:
		return p.errorf("invalid escape \\%c", c)
	}
	return nil
}

func (p *literalParser) parseHex4() (rune, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.errorf("truncated \\u escape")
	}
	v, err := strconv.ParseUint(p.data[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid \\u escape")
	}
	p.pos += 4
	return rune(v), nil
}

// parseNumber accepts an optional sign, digits with an optional fraction,
// and an optional exponent. Integers keep arbitrary precision.
func (p *literalParser) parseNumber() (literal, error) {
	start := p.pos
	if c := p.data[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	intDigits := p.consumeDigits()
	isInt := true
	if c, ok := p.peek(); ok && c == '.' {
		isInt = false
		p.pos++
		fracDigits := p.consumeDigits()
		if intDigits == 0 && fracDigits == 0 {
			return literal{}, p.errorf("malformed number")
		}
	} else if intDigits == 0 {
		return literal{}, p.errorf("malformed number")
	}
	if c, ok := p.peek(); ok && (c == 'e' || c == 'E') {
		isInt = false
		p.pos++
		if c, ok := p.peek(); ok && (c == '-' || c == '+') {
			p.pos++
		}
		if p.consumeDigits() == 0 {
			return literal{}, p.errorf("malformed exponent")
		}
	}
	if c, ok := p.peek(); ok && isIdentByte(c) {
		return literal{}, p.errorf("unexpected %q after number", c)
	}

	raw := p.data[start:p.pos]
	out := literal{kind: kindNumber, raw: raw}
	if isInt {
		n, ok := new(big.Int).SetString(strings.TrimPrefix(raw, "+"), 10)
		if !ok {
			return literal{}, p.errorf("malformed integer")
		}
		out.integer = n
		out.float, _ = new(big.Float).SetInt(n).Float64()
		out.outOfRange = math.IsInf(out.float, 0)
		return out, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return literal{}, p.errorf("malformed number %q", raw)
		}
		out.outOfRange = true
	}
	// ParseFloat rounds underflow to zero without reporting it.
	if f == 0 && nonzeroMantissa(raw) {
		out.outOfRange = true
	}
	out.float = f
	return out, nil
}

// nonzeroMantissa reports whether any digit before the exponent of raw is
// not zero.
func nonzeroMantissa(raw string) bool {
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		raw = raw[:i]
	}
	return strings.ContainsAny(raw, "123456789")
}

func (p *literalParser) consumeDigits() int {
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	return p.pos - start
}
