package strategies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = (*CanonicalLiteral)(nil)

// CanonicalLiteral parses both outputs as nested data literals and compares
// the resulting structures. Numbers compare by value, sequences element by
// element, sets and mappings without regard to order.
//
// Concurrency: CanonicalLiteral is immutable after creation and safe for
// concurrent use.
type CanonicalLiteral struct {
	config CanonicalLiteralConfig
}

// CanonicalLiteralConfig controls parser limits.
type CanonicalLiteralConfig struct {
	// MaxDepth bounds nesting of sequences and mappings. Deeper inputs are
	// treated as not being literals.
	MaxDepth int `yaml:"max_depth" json:"max_depth" validate:"min=1,max=10000"`
}

// DefaultCanonicalLiteralConfig returns the limits used by the default
// registry.
func DefaultCanonicalLiteralConfig() CanonicalLiteralConfig {
	return CanonicalLiteralConfig{MaxDepth: DefaultMaxLiteralDepth}
}

// NewCanonicalLiteral creates a CanonicalLiteral with validated configuration.
func NewCanonicalLiteral(config CanonicalLiteralConfig) (*CanonicalLiteral, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &CanonicalLiteral{config: config}, nil
}

// NewCanonicalLiteralFromConfig creates a CanonicalLiteral from a
// configuration map, starting from the defaults.
func NewCanonicalLiteralFromConfig(config map[string]any) (ports.Strategy, error) {
	cfg := DefaultCanonicalLiteralConfig()
	if err := overlayConfig(config, &cfg); err != nil {
		return nil, err
	}
	return NewCanonicalLiteral(cfg)
}

// Mode returns domain.ModeCanonicalLiteral.
func (*CanonicalLiteral) Mode() domain.Mode { return domain.ModeCanonicalLiteral }

// Evaluate defers when either side is not a literal, passes on structural
// equality, and otherwise fails naming the first differing path.
func (c *CanonicalLiteral) Evaluate(
	ctx context.Context,
	submitted, expected string,
	_ domain.ComparisonConfig,
) domain.StrategyVerdict {
	exp, err := parseLiteral(ctx, expected, c.config.MaxDepth)
	if err != nil {
		return deferOnParse(ctx, "expected", err)
	}
	sub, err := parseLiteral(ctx, submitted, c.config.MaxDepth)
	if err != nil {
		return deferOnParse(ctx, "submitted", err)
	}

	cmp := literalComparer{ctx: ctx}
	reason, err := cmp.compare(nil, sub, exp)
	if err != nil {
		return domain.Defer(domain.ModeCanonicalLiteral, "evaluation cancelled")
	}
	if reason != "" {
		return domain.Fail(domain.ModeCanonicalLiteral, reason, LabelLiteralParse)
	}
	return domain.Pass(domain.ModeCanonicalLiteral, LabelLiteralParse)
}

func deferOnParse(ctx context.Context, side string, err error) domain.StrategyVerdict {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return domain.Defer(domain.ModeCanonicalLiteral, "evaluation cancelled")
	}
	return domain.Defer(domain.ModeCanonicalLiteral, side+" output is not a literal")
}

// literalComparer walks two literals in lockstep.
type literalComparer struct {
	ctx     context.Context
	visited int
}

// compare returns an empty reason on equality, otherwise a description of
// the first difference prefixed by its path.
func (lc *literalComparer) compare(path []string, sub, exp literal) (string, error) {
	lc.visited++
	if lc.visited%cancelCheckInterval == 0 {
		if err := lc.ctx.Err(); err != nil {
			return "", err
		}
	}

	if sub.kind != exp.kind {
		if isContainer(sub.kind) || isContainer(exp.kind) {
			return withPath(path, fmt.Sprintf("type %s != %s", sub.kind, exp.kind)), nil
		}
		return withPath(path, renderPair(sub, exp)), nil
	}

	switch exp.kind {
	case kindNull, kindBool:
		// True and true are different spellings, not formatting.
		if sub.raw != exp.raw {
			return withPath(path, renderPair(sub, exp)), nil
		}
		return "", nil
	case kindString:
		if sub.str != exp.str {
			return withPath(path, renderPair(sub, exp)), nil
		}
		return "", nil
	case kindNumber:
		if !numbersEqual(sub, exp) {
			return withPath(path, renderPair(sub, exp)), nil
		}
		return "", nil
	case kindList, kindTuple:
		if len(sub.items) != len(exp.items) {
			return withPath(path, fmt.Sprintf("length %d != %d", len(sub.items), len(exp.items))), nil
		}
		for i := range exp.items {
			reason, err := lc.compare(append(path, fmt.Sprintf("index %d", i)), sub.items[i], exp.items[i])
			if err != nil || reason != "" {
				return reason, err
			}
		}
		return "", nil
	case kindSet:
		if diff := compareSets(sub, exp); diff != "" {
			return withPath(path, diff), nil
		}
		return "", nil
	default:
		return lc.compareMaps(path, sub, exp)
	}
}

func (lc *literalComparer) compareMaps(path []string, sub, exp literal) (string, error) {
	subIndex := make(map[string]int, len(sub.items))
	for i, k := range sub.items {
		subIndex[canonicalKey(k)] = i
	}

	var missing, unexpected []string
	expKeys := make(map[string]struct{}, len(exp.items))
	for _, k := range exp.items {
		ck := canonicalKey(k)
		expKeys[ck] = struct{}{}
		if _, ok := subIndex[ck]; !ok {
			missing = append(missing, render(k))
		}
	}
	for _, k := range sub.items {
		if _, ok := expKeys[canonicalKey(k)]; !ok {
			unexpected = append(unexpected, render(k))
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		return withPath(path, describeKeyDiff(missing, unexpected)), nil
	}

	for i, k := range exp.items {
		j := subIndex[canonicalKey(k)]
		reason, err := lc.compare(append(path, "key "+render(k)), sub.values[j], exp.values[i])
		if err != nil || reason != "" {
			return reason, err
		}
	}
	return "", nil
}

func describeKeyDiff(missing, unexpected []string) string {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing keys "+strings.Join(missing, ", "))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected keys "+strings.Join(unexpected, ", "))
	}
	return truncate(strings.Join(parts, "; "), 3*maxRenderedValue)
}

// compareSets returns an empty string when both sets hold the same
// elements.
func compareSets(sub, exp literal) string {
	subKeys := make(map[string]struct{}, len(sub.items))
	for _, it := range sub.items {
		subKeys[canonicalKey(it)] = struct{}{}
	}
	expKeys := make(map[string]struct{}, len(exp.items))
	for _, it := range exp.items {
		expKeys[canonicalKey(it)] = struct{}{}
	}
	if len(subKeys) != len(expKeys) {
		return renderPair(sub, exp)
	}
	for k := range expKeys {
		if _, ok := subKeys[k]; !ok {
			return renderPair(sub, exp)
		}
	}
	return ""
}

func isContainer(k literalKind) bool {
	return k == kindList || k == kindTuple || k == kindSet || k == kindMap
}

// maxExactExponent bounds the decimal exponent converted to an exact
// rational. Larger exponents are compared as wide binary floats.
const maxExactExponent = 1000

// bigFloatPrec is the mantissa width used past maxExactExponent.
const bigFloatPrec = 1024

// numbersEqual compares integers exactly and in-range numbers as float64.
// A number that does not fit a float64 is compared by its exact value.
func numbersEqual(a, b literal) bool {
	if a.integer != nil && b.integer != nil {
		return a.integer.Cmp(b.integer) == 0
	}
	if a.raw != "" && a.raw == b.raw {
		return true
	}
	if !a.outOfRange && !b.outOfRange {
		return a.float == b.float
	}

	ra, okA := exactNumber(a)
	rb, okB := exactNumber(b)
	if okA && okB {
		return ra.Cmp(rb) == 0
	}
	fa, okA := wideNumber(a)
	fb, okB := wideNumber(b)
	return okA && okB && fa.Cmp(fb) == 0
}

// exactNumber returns the exact value of l, or false when its exponent is
// too large to expand.
func exactNumber(l literal) (*big.Rat, bool) {
	if l.integer != nil {
		return new(big.Rat).SetInt(l.integer), true
	}
	if exp, ok := decimalExponent(l.raw); !ok || exp > maxExactExponent || exp < -maxExactExponent {
		return nil, false
	}
	return new(big.Rat).SetString(strings.TrimPrefix(l.raw, "+"))
}

func wideNumber(l literal) (*big.Float, bool) {
	if l.integer != nil {
		return new(big.Float).SetPrec(bigFloatPrec).SetInt(l.integer), true
	}
	f, _, err := big.ParseFloat(strings.TrimPrefix(l.raw, "+"), 10, bigFloatPrec, big.ToNearestEven)
	return f, err == nil
}

// decimalExponent returns the exponent written after e or E in raw, or 0.
func decimalExponent(raw string) (int, bool) {
	i := strings.IndexAny(raw, "eE")
	if i < 0 {
		return 0, true
	}
	exp, err := strconv.Atoi(raw[i+1:])
	return exp, err == nil
}

func withPath(path []string, msg string) string {
	if len(path) == 0 {
		return msg
	}
	return strings.Join(path, ", ") + ": " + msg
}

func renderPair(sub, exp literal) string {
	return render(sub) + " != " + render(exp)
}

// render formats a literal for a learner-facing reason. Numbers keep their
// source spelling.
func render(l literal) string {
	var b strings.Builder
	writeLiteral(&b, l)
	return truncate(b.String(), maxRenderedValue)
}

func writeLiteral(b *strings.Builder, l literal) {
	if b.Len() > maxRenderedValue {
		return
	}
	switch l.kind {
	case kindNull, kindBool, kindNumber:
		b.WriteString(l.raw)
	case kindString:
		b.WriteString(strconv.Quote(l.str))
	case kindList:
		writeItems(b, "[", "]", l.items)
	case kindTuple:
		writeItems(b, "(", ")", l.items)
	case kindSet:
		writeItems(b, "{", "}", l.items)
	default:
		b.WriteByte('{')
		for i := range l.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, l.items[i])
			b.WriteString(": ")
			writeLiteral(b, l.values[i])
		}
		b.WriteByte('}')
	}
}

func writeItems(b *strings.Builder, open, closer string, items []literal) {
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeLiteral(b, it)
	}
	b.WriteString(closer)
}

// canonicalKey returns a string that is equal for two literals exactly when
// they compare equal, so literals can be used as map and set keys.
func canonicalKey(l literal) string {
	var b strings.Builder
	writeCanonical(&b, l)
	return b.String()
}

func writeCanonical(b *strings.Builder, l literal) {
	switch l.kind {
	case kindNull, kindBool:
		b.WriteString("k" + l.raw)
	case kindNumber:
		b.WriteString("#" + canonicalNumber(l))
	case kindString:
		b.WriteString("s" + strconv.Quote(l.str))
	case kindList:
		writeCanonicalItems(b, "[", "]", l.items)
	case kindTuple:
		writeCanonicalItems(b, "(", ")", l.items)
	case kindSet:
		keys := make([]string, len(l.items))
		for i, it := range l.items {
			keys[i] = canonicalKey(it)
		}
		slices.Sort(keys)
		b.WriteString("{" + strings.Join(keys, ",") + "}")
	default:
		entries := make([]string, len(l.items))
		for i := range l.items {
			entries[i] = canonicalKey(l.items[i]) + ":" + canonicalKey(l.values[i])
		}
		slices.Sort(entries)
		b.WriteString("<" + strings.Join(entries, ",") + ">")
	}
}

func writeCanonicalItems(b *strings.Builder, open, closer string, items []literal) {
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonical(b, it)
	}
	b.WriteString(closer)
}

// canonicalNumber spells integral values as integers so that 1 and 1.0
// share a key.
func canonicalNumber(l literal) string {
	if l.integer != nil {
		return l.integer.String()
	}
	if l.outOfRange {
		if r, ok := exactNumber(l); ok {
			if r.IsInt() {
				return r.Num().String()
			}
			return r.RatString()
		}
		if f, ok := wideNumber(l); ok {
			return f.Text('g', -1)
		}
		return l.raw
	}
	if f := l.float; !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) {
		i, _ := new(big.Float).SetFloat64(f).Int(nil)
		return i.String()
	}
	return strconv.FormatFloat(l.float, 'g', -1, 64)
}
