package grammar

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/johncclayton/rt-grammar/pkg"
)

// ErrArity is returned by [Table.CheckArity] for calls outside a known
// function's declared arity.
var ErrArity = pkg.NewError("unexpected argument count")

// Form is a statement form a section body may contain.
type Form uint8

const (
	FormAssignment Form = 1 << iota
	FormCall
	FormConditional
	FormDirective
	FormParameter
)

var formNames = []struct {
	form Form
	name string
}{
	{FormAssignment, "assignment"},
	{FormCall, "call"},
	{FormConditional, "conditional"},
	{FormDirective, "directive"},
	{FormParameter, "parameter"},
}

// ParseForm returns the form named s.
func ParseForm(s string) (Form, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range formNames {
		if f.name == s {
			return f.form, true
		}
	}

	return 0, false
}

// Has reports whether every form in x is present in f.
func (f Form) Has(x Form) bool { return x != 0 && f&x == x }

// String returns the comma-separated names of the forms in f.
func (f Form) String() string {
	var names []string

	for _, n := range formNames {
		if f.Has(n.form) {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, ",")
}

// DirectiveMode selects how the value of a "Name: value" directive is read.
type DirectiveMode uint8

const (
	// DirectiveNone means the section has no directives.
	DirectiveNone DirectiveMode = iota
	// DirectiveExpr values are one or more comma-separated expressions.
	DirectiveExpr
	// DirectiveText values are the raw tokens up to the end of the line.
	DirectiveText
)

// String returns the mode name used in grammar descriptions.
func (m DirectiveMode) String() string {
	switch m {
	case DirectiveExpr:
		return "expr"
	case DirectiveText:
		return "text"
	default:
		return ""
	}
}

// Section is the table entry of one section keyword.
type Section struct {
	Name      string
	Forms     Form
	Directive DirectiveMode
	Singleton bool
}

// Allows reports whether the section body accepts form f.
func (s *Section) Allows(f Form) bool { return s.Forms.Has(f) }

// Assoc is the associativity of a binary operator.
type Assoc uint8

const (
	AssocLeft Assoc = iota
	AssocRight
)

// String returns the associativity name used in grammar descriptions.
func (a Assoc) String() string {
	if a == AssocRight {
		return "right"
	}

	return "left"
}

// Operator is the table entry of a unary or binary operator.
type Operator struct {
	Lexeme     string
	Precedence int
	Assoc      Assoc
}

// Function is the advisory signature of a built-in function.
// Max is -1 for variadic functions.
type Function struct {
	Name string
	Min  int
	Max  int
}

// Accepts reports whether n arguments satisfy the function's arity.
func (f Function) Accepts(n int) bool {
	return n >= f.Min && (f.Max < 0 || n <= f.Max)
}

// Punctuation lexemes recognized regardless of the grammar description.
const (
	LParen   = "("
	RParen   = ")"
	LBracket = "["
	RBracket = "]"
	Colon    = ":"
)

// Table is an immutable, queryable grammar. It is safe for concurrent use.
type Table struct {
	desc        Description
	name        string
	version     *semver.Version
	keywords    KeywordSet
	sections    []*Section
	sectionIdx  map[string]*Section
	binary      map[string]Operator
	unary       map[string]Operator
	words       map[string]string // lower-case keyword -> canonical
	closers     map[string]string // lower-case closer -> closed construct
	assign      map[string]bool
	separator   string
	symbols     []string
	functions   map[string]Function
	fingerprint uint64
}

// Name returns the grammar name.
func (t *Table) Name() string { return t.name }

// Version returns the grammar version.
func (t *Table) Version() *semver.Version { return t.version }

// String returns "name version".
func (t *Table) String() string { return t.name + " " + t.version.String() }

// Fingerprint returns a hash identifying the table's content.
func (t *Table) Fingerprint() uint64 { return t.fingerprint }

// Description returns a copy of the normalized description the table was
// built from.
func (t *Table) Description() Description {
	d := t.desc
	d.Assign = slices.Clone(d.Assign)
	d.Operators = slices.Clone(d.Operators)
	d.Functions = slices.Clone(d.Functions)
	d.Sections = make([]SectionSpec, len(t.desc.Sections))

	for i, s := range t.desc.Sections {
		s.Statements = slices.Clone(s.Statements)
		d.Sections[i] = s
	}

	return d
}

// Keywords returns the canonical structural keywords.
func (t *Table) Keywords() KeywordSet { return t.keywords }

// Sections returns the canonical section names in declaration order.
func (t *Table) Sections() []string {
	names := make([]string, len(t.sections))
	for i, s := range t.sections {
		names[i] = s.Name
	}

	return names
}

// Section returns the section named name, case-insensitively.
func (t *Table) Section(name string) (*Section, bool) {
	s, ok := t.sectionIdx[strings.ToLower(name)]

	return s, ok
}

// Keyword returns the canonical form of lexeme if it is a keyword.
func (t *Table) Keyword(lexeme string) (string, bool) {
	k, ok := t.words[strings.ToLower(lexeme)]

	return k, ok
}

// IsKeyword reports whether lexeme is the keyword canonical, ignoring case.
func (t *Table) IsKeyword(lexeme, canonical string) bool {
	k, ok := t.Keyword(lexeme)

	return ok && k == canonical
}

// Closer reports whether lexeme is a block closer. The returned target is
// empty for the bare end keyword, the section name for "End<Section>", and
// the if keyword for "End<If>".
func (t *Table) Closer(lexeme string) (target string, ok bool) {
	target, ok = t.closers[strings.ToLower(lexeme)]

	return target, ok
}

// CloserFor returns the single-word closer of a section or the if keyword,
// e.g. "EndData".
func (t *Table) CloserFor(construct string) string {
	return t.keywords.End + construct
}

// Binary returns the binary operator lexeme, case-insensitively.
func (t *Table) Binary(lexeme string) (Operator, bool) {
	op, ok := t.binary[strings.ToLower(lexeme)]

	return op, ok
}

// Unary returns the unary operator lexeme, case-insensitively.
func (t *Table) Unary(lexeme string) (Operator, bool) {
	op, ok := t.unary[strings.ToLower(lexeme)]

	return op, ok
}

// BinaryLexemes returns the canonical binary operator lexemes, sorted.
func (t *Table) BinaryLexemes() []string { return sortedLexemes(t.binary) }

// UnaryLexemes returns the canonical unary operator lexemes, sorted.
func (t *Table) UnaryLexemes() []string { return sortedLexemes(t.unary) }

// IsAssign reports whether lexeme is an assignment operator.
func (t *Table) IsAssign(lexeme string) bool { return t.assign[lexeme] }

// AssignLexemes returns the assignment operators, sorted.
func (t *Table) AssignLexemes() []string {
	out := make([]string, 0, len(t.assign))
	for a := range t.assign {
		out = append(out, a)
	}

	slices.Sort(out)

	return out
}

// Separator returns the argument and list separator.
func (t *Table) Separator() string { return t.separator }

// Symbols returns every non-word lexeme the lexer must recognize, longest
// first. The caller must not modify the result.
func (t *Table) Symbols() []string { return t.symbols }

// Function returns the advisory signature of the named function.
func (t *Table) Function(name string) (Function, bool) {
	f, ok := t.functions[strings.ToLower(name)]

	return f, ok
}

// CheckArity reports whether a call of name with n arguments fits the
// function's declared arity. Unknown functions always fit. The check is
// advisory; the parser accepts any call shape.
func (t *Table) CheckArity(name string, n int) error {
	f, ok := t.Function(name)
	if !ok || f.Accepts(n) {
		return nil
	}

	return ErrArity.With(
		slog.String("function", f.Name),
		slog.Int("args", n),
		slog.Int("min", f.Min),
		slog.Int("max", f.Max),
	)
}

// Functions returns the declared function names, sorted.
func (t *Table) Functions() []string {
	out := make([]string, 0, len(t.functions))
	for _, f := range t.functions {
		out = append(out, f.Name)
	}

	slices.Sort(out)

	return out
}

func sortedLexemes(m map[string]Operator) []string {
	out := make([]string, 0, len(m))
	for _, op := range m {
		out = append(out, op.Lexeme)
	}

	slices.Sort(out)

	return out
}
