package grammar

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/zeebo/xxh3"
)

// DefaultName is used for descriptions that do not name themselves.
const DefaultName = "custom"

// operatorChars are the runes a symbolic lexeme may be built from.
const operatorChars = "+-*/^<>=!%~|@#.;:,"

// Build validates d and returns the table it describes. Every problem found
// is reported, joined, and wrapped in [ErrInvalid].
func Build(d Description) (*Table, error) {
	b := builder{
		t: &Table{
			sectionIdx: map[string]*Section{},
			binary:     map[string]Operator{},
			unary:      map[string]Operator{},
			words:      map[string]string{},
			closers:    map[string]string{},
			assign:     map[string]bool{},
			functions:  map[string]Function{},
		},
	}

	d = normalize(d)

	b.version(d)
	b.keywords(d.Keywords)
	b.operators(d.Operators)
	b.sections(d.Sections)
	b.punctuation(d)
	b.functions(d.Functions)

	if len(b.errs) > 0 {
		return nil, ErrInvalid.Wrap(errors.Join(b.errs...))
	}

	b.t.desc = d
	b.t.name = d.Name
	b.t.fingerprint = fingerprint(d)

	return b.t, nil
}

// normalize fills defaults without touching the caller's slices.
func normalize(d Description) Description {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = DefaultName
	}

	d.Version = strings.TrimSpace(d.Version)
	d.Keywords = d.Keywords.withDefaults()

	if d.Separator == "" {
		d.Separator = ","
	}

	if len(d.Assign) == 0 {
		d.Assign = []string{"="}
	}

	return d
}

type builder struct {
	t     *Table
	roles map[string]string
	errs  []error
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// word registers a case-insensitive keyword, rejecting collisions between
// roles or canonical spellings. A word operator may be both unary and binary.
func (b *builder) word(w, role string) {
	if b.roles == nil {
		b.roles = map[string]string{}
	}

	key := strings.ToLower(w)
	if prev, ok := b.t.words[key]; ok {
		shared := strings.HasSuffix(role, " operator") &&
			strings.HasSuffix(b.roles[key], " operator")
		if prev != w || !shared {
			b.fail("%s %q collides with %s %q", role, w, b.roles[key], prev)
		}

		return
	}

	b.t.words[key] = w
	b.roles[key] = role
}

func (b *builder) version(d Description) {
	if d.Version == "" {
		b.fail("version is required")

		return
	}

	v, err := semver.NewVersion(d.Version)
	if err != nil {
		b.fail("version %q: %w", d.Version, err)

		return
	}

	b.t.version = v
}

func (b *builder) keywords(k KeywordSet) {
	seen := map[string]string{}

	for _, kw := range k.all() {
		role, w := kw[0], kw[1]
		if !isIdent(w) {
			b.fail("keyword %s %q is not an identifier", role, w)

			continue
		}

		if prev, ok := seen[strings.ToLower(w)]; ok {
			b.fail("keyword %s %q duplicates keyword %s", role, w, prev)

			continue
		}

		seen[strings.ToLower(w)] = role
		b.word(w, "keyword "+role)
	}

	b.t.keywords = k
	b.t.closers[strings.ToLower(k.End)] = ""
	b.closer(k.If)
}

func (b *builder) closer(construct string) {
	w := b.t.CloserFor(construct)
	b.word(w, "closer")
	b.t.closers[strings.ToLower(w)] = construct
}

func (b *builder) operators(ops []OperatorSpec) {
	for i, spec := range ops {
		where := fmt.Sprintf("operator %d %q", i, spec.Lexeme)

		lexeme := strings.TrimSpace(spec.Lexeme)
		if lexeme == "" {
			b.fail("%s: empty lexeme", where)

			continue
		}

		if !b.lexeme(where, lexeme) {
			continue
		}

		if spec.Precedence < 1 {
			b.fail("%s: precedence %d must be at least 1", where, spec.Precedence)

			continue
		}

		op := Operator{Lexeme: lexeme, Precedence: spec.Precedence}

		switch strings.ToLower(spec.Assoc) {
		case "", "left":
		case "right":
			op.Assoc = AssocRight
		default:
			b.fail("%s: unknown associativity %q", where, spec.Assoc)

			continue
		}

		set, kind := b.t.binary, "binary"
		if spec.Unary {
			set, kind = b.t.unary, "unary"
		}

		key := strings.ToLower(lexeme)
		if _, dup := set[key]; dup {
			b.fail("%s: duplicate %s operator", where, kind)

			continue
		}

		set[key] = op

		if isIdent(lexeme) {
			b.word(lexeme, kind+" operator")
		}
	}

	if len(b.t.binary) == 0 {
		b.fail("no binary operators declared")
	}
}

// lexeme reports whether s is usable as an operator: an identifier-like word
// or a run of operator characters that cannot be confused with punctuation,
// reference prefixes, strings, or comments.
func (b *builder) lexeme(where, s string) bool {
	if isIdent(s) {
		return true
	}

	for _, r := range s {
		if !strings.ContainsRune(operatorChars, r) {
			b.fail("%s: character %q not allowed in operator", where, r)

			return false
		}
	}

	switch {
	case strings.Contains(s, "//"), strings.Contains(s, "/*"):
		b.fail("%s: operator contains a comment opener", where)

		return false
	case s == Colon:
		b.fail("%s: %q is reserved punctuation", where, s)

		return false
	}

	return true
}

func (b *builder) sections(specs []SectionSpec) {
	if len(specs) == 0 {
		b.fail("no sections declared")

		return
	}

	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		where := fmt.Sprintf("section %d %q", i, name)

		if !isIdent(name) {
			b.fail("%s: name is not an identifier", where)

			continue
		}

		if _, dup := b.t.sectionIdx[strings.ToLower(name)]; dup {
			b.fail("%s: duplicate section", where)

			continue
		}

		sec := &Section{Name: name, Singleton: spec.Singleton}

		for _, st := range spec.Statements {
			f, ok := ParseForm(st)
			if !ok {
				b.fail("%s: unknown statement form %q", where, st)

				continue
			}

			sec.Forms |= f
		}

		if sec.Forms == 0 {
			b.fail("%s: no statement forms", where)
		}

		switch mode := strings.ToLower(strings.TrimSpace(spec.Directive)); {
		case !sec.Allows(FormDirective) && mode != "":
			b.fail("%s: directive mode %q without directive statements", where, mode)
		case !sec.Allows(FormDirective):
		case mode == "expr":
			sec.Directive = DirectiveExpr
		case mode == "text":
			sec.Directive = DirectiveText
		default:
			b.fail("%s: directive mode must be expr or text, got %q", where, mode)
		}

		b.word(name, "section")
		b.closer(name)

		b.t.sections = append(b.t.sections, sec)
		b.t.sectionIdx[strings.ToLower(name)] = sec
	}
}

func (b *builder) punctuation(d Description) {
	reserved := []string{LParen, RParen, LBracket, RBracket, Colon}

	sep := strings.TrimSpace(d.Separator)
	if sep == "" || (b.lexeme("separator", sep) && isIdent(sep)) {
		b.fail("separator %q must be symbolic", sep)
	}

	if _, clash := b.t.binary[sep]; clash {
		b.fail("separator %q is also a binary operator", sep)
	}

	b.t.separator = sep

	for _, a := range d.Assign {
		a = strings.TrimSpace(a)
		if !b.lexeme(fmt.Sprintf("assignment %q", a), a) {
			continue
		}

		if a == "" || isIdent(a) || a == sep {
			b.fail("assignment %q must be symbolic and differ from the separator", a)

			continue
		}

		b.t.assign[a] = true
	}

	symbols := slices.Clone(reserved)
	symbols = append(symbols, sep)

	for a := range b.t.assign {
		symbols = append(symbols, a)
	}

	for _, set := range []map[string]Operator{b.t.binary, b.t.unary} {
		for _, op := range set {
			if !isIdent(op.Lexeme) {
				symbols = append(symbols, op.Lexeme)
			}
		}
	}

	slices.SortFunc(symbols, func(x, y string) int {
		return cmp.Or(cmp.Compare(len(y), len(x)), cmp.Compare(x, y))
	})

	b.t.symbols = slices.Compact(symbols)
}

func (b *builder) functions(specs []FunctionSpec) {
	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		where := fmt.Sprintf("function %d %q", i, name)

		if !isIdent(name) {
			b.fail("%s: name is not an identifier", where)

			continue
		}

		if _, dup := b.t.functions[strings.ToLower(name)]; dup {
			b.fail("%s: duplicate function", where)

			continue
		}

		fn := Function{Name: name, Min: spec.Min, Max: spec.Max}

		switch {
		case spec.Min < 0:
			b.fail("%s: negative minimum arity", where)

			continue
		case spec.Variadic:
			fn.Max = -1
		case spec.Max == 0:
			fn.Max = spec.Min
		case spec.Max < spec.Min:
			b.fail("%s: maximum arity %d below minimum %d", where, spec.Max, spec.Min)

			continue
		}

		b.t.functions[strings.ToLower(name)] = fn
	}
}

// isIdent reports whether s is a letter followed by letters, digits, or
// underscores.
func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}

	return true
}

func fingerprint(d Description) uint64 {
	var buf bytes.Buffer

	// Description holds only gob-encodable fields.
	_ = gob.NewEncoder(&buf).Encode(d)

	return xxh3.Hash(buf.Bytes())
}
