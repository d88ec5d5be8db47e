package lang

import (
	"io"
	"iter"
	"strings"

	"github.com/johncclayton/rt-grammar/lang/grammar"
)

// Node is any element of the syntax tree.
type Node interface {
	Pos() Position
}

// Statement is one line (or block) of a section body: *Assignment,
// *CallStatement, *Conditional, *Directive, or *ParamDecl.
type Statement interface {
	Node
	statement()
}

// Expression is a value: *Literal, *Identifier, *SymbolRef, *WatchlistRef,
// *ParamRef, *Unary, *Binary, *Call, or *Index. String renders it fully
// parenthesized.
type Expression interface {
	Node
	String() string
	expression()
}

// Script is a parsed script: its sections in source order.
type Script struct {
	Sections []*Section
}

// Section is one top-level block. Name is the canonical section keyword.
// A header-only section has a header line and no body or closer.
type Section struct {
	Name       string
	Header     string
	HeaderOnly bool
	Body       []Statement
	Start      Position
}

// Assignment is "Target = Value".
type Assignment struct {
	Target string
	Op     string
	Value  Expression
	Start  Position
}

// CallStatement is a call on a line of its own.
type CallStatement struct {
	Call *Call
}

// Branch is the If or an ElseIf arm of a conditional.
type Branch struct {
	Cond  Expression
	Body  []Statement
	Start Position
}

// Conditional is an If block with optional ElseIf and Else arms.
type Conditional struct {
	Branches []*Branch
	Else     []Statement
	HasElse  bool
	Start    Position
}

// Directive is "Name: value". In expr mode the value is Values; in text
// mode it is the raw tokens of the line joined by spaces. A text-mode line
// that is not of the "Name:" form has an empty Name.
type Directive struct {
	Name   string
	Mode   grammar.DirectiveMode
	Values []Expression
	Text   string
	Start  Position
}

// ParamDecl is a parameter declaration: either a range
// "Name: [from] From to To [step Step]" or a list "Name: v1, v2, ...".
type ParamDecl struct {
	Name   string
	From   Expression
	To     Expression
	Step   Expression
	Values []Expression
	Start  Position
}

// LiteralKind distinguishes literal values.
type LiteralKind uint8

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralDate
)

// String returns the literal kind name.
func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "string"
	case LiteralDate:
		return "date"
	default:
		return "number"
	}
}

// Literal is a number, string, or date, kept as written.
type Literal struct {
	Kind  LiteralKind
	Raw   string
	Start Position
}

// Identifier is a bare name.
type Identifier struct {
	Name  string
	Start Position
}

// SymbolRef is "$Name".
type SymbolRef struct {
	Name  string
	Start Position
}

// WatchlistRef is "&Name".
type WatchlistRef struct {
	Name  string
	Start Position
}

// ParamRef is "?Name".
type ParamRef struct {
	Name  string
	Start Position
}

// Unary is a prefix operator applied to an operand.
type Unary struct {
	Op      string
	Operand Expression
	Start   Position
}

// Binary is an infix operator applied to two operands.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
	Start Position
}

// Call is "Name(arg, ...)".
type Call struct {
	Name  string
	Args  []Expression
	Start Position
}

// Index is a bar offset such as "C[1]".
type Index struct {
	Target Expression
	Index  Expression
	Start  Position
}

func (s *Section) Pos() Position       { return s.Start }
func (s *Assignment) Pos() Position    { return s.Start }
func (s *CallStatement) Pos() Position { return s.Call.Start }
func (b *Branch) Pos() Position        { return b.Start }
func (s *Conditional) Pos() Position   { return s.Start }
func (s *Directive) Pos() Position     { return s.Start }
func (s *ParamDecl) Pos() Position     { return s.Start }
func (x *Literal) Pos() Position       { return x.Start }
func (x *Identifier) Pos() Position    { return x.Start }
func (x *SymbolRef) Pos() Position     { return x.Start }
func (x *WatchlistRef) Pos() Position  { return x.Start }
func (x *ParamRef) Pos() Position      { return x.Start }
func (x *Unary) Pos() Position         { return x.Start }
func (x *Binary) Pos() Position        { return x.Start }
func (x *Call) Pos() Position          { return x.Start }
func (x *Index) Pos() Position         { return x.Start }

func (*Assignment) statement()    {}
func (*CallStatement) statement() {}
func (*Conditional) statement()   {}
func (*Directive) statement()     {}
func (*ParamDecl) statement()     {}

func (*Literal) expression()      {}
func (*Identifier) expression()   {}
func (*SymbolRef) expression()    {}
func (*WatchlistRef) expression() {}
func (*ParamRef) expression()     {}
func (*Unary) expression()        {}
func (*Binary) expression()       {}
func (*Call) expression()         {}
func (*Index) expression()        {}

func (x *Literal) String() string      { return x.Raw }
func (x *Identifier) String() string   { return x.Name }
func (x *SymbolRef) String() string    { return string(prefixSymbol) + x.Name }
func (x *WatchlistRef) String() string { return string(prefixWatchlist) + x.Name }
func (x *ParamRef) String() string     { return string(prefixParam) + x.Name }

func (x *Unary) String() string {
	sep := ""
	if isWordRune(firstRune(x.Op)) {
		sep = " "
	}

	return "(" + x.Op + sep + x.Operand.String() + ")"
}

func (x *Binary) String() string {
	return "(" + x.Left.String() + " " + x.Op + " " + x.Right.String() + ")"
}

func (x *Call) String() string { return x.Name + "(" + joinExprs(x.Args, ", ") + ")" }

func (x *Index) String() string { return x.Target.String() + "[" + x.Index.String() + "]" }

func joinExprs(xs []Expression, sep string) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = x.String()
	}

	return strings.Join(s, sep)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}

	return -1
}

// Section returns the first section with the given canonical name.
func (s *Script) Section(name string) (*Section, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}

	return nil, false
}

// Walk calls fn for n and then for each of its children in source order.
// Children of a node are skipped when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	walkAll := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				Walk(c, fn)
			}
		}
	}

	switch n := n.(type) {
	case *Section:
		walkAll(statements(n.Body)...)
	case *Assignment:
		walkAll(n.Value)
	case *CallStatement:
		walkAll(n.Call)
	case *Conditional:
		for _, b := range n.Branches {
			walkAll(b)
		}

		walkAll(statements(n.Else)...)
	case *Branch:
		walkAll(n.Cond)
		walkAll(statements(n.Body)...)
	case *Directive:
		walkAll(expressions(n.Values)...)
	case *ParamDecl:
		walkAll(n.From, n.To, n.Step)
		walkAll(expressions(n.Values)...)
	case *Unary:
		walkAll(n.Operand)
	case *Binary:
		walkAll(n.Left, n.Right)
	case *Call:
		walkAll(expressions(n.Args)...)
	case *Index:
		walkAll(n.Target, n.Index)
	}
}

func statements(ss []Statement) []Node {
	ns := make([]Node, len(ss))
	for i, s := range ss {
		ns[i] = s
	}

	return ns
}

func expressions(xs []Expression) []Node {
	ns := make([]Node, len(xs))
	for i, x := range xs {
		ns[i] = x
	}

	return ns
}

// Calls iterates over every call in the script, including calls nested in
// arguments, in source order.
func (s *Script) Calls() iter.Seq[*Call] {
	return func(yield func(*Call) bool) {
		done := false

		for _, sec := range s.Sections {
			Walk(sec, func(n Node) bool {
				if done {
					return false
				}

				if c, ok := n.(*Call); ok && !yield(c) {
					done = true

					return false
				}

				return true
			})

			if done {
				return
			}
		}
	}
}

// Print writes an indented outline of the script to w.
func (s *Script) Print(w io.Writer) error {
	put := writer(w)

	for _, sec := range s.Sections {
		printSection(put, sec)
	}

	return put.err
}

// outline writes "item: item: ..." lines and keeps the first write error.
type outline struct {
	w   io.Writer
	err error
}

func writer(w io.Writer) *outline { return &outline{w: w} }

func (o *outline) line(indent int, item ...string) {
	if o.err != nil {
		return
	}

	_, o.err = io.WriteString(o.w,
		strings.Repeat("  ", indent)+strings.Join(item, ": ")+"\n")
}

func printSection(put *outline, sec *Section) {
	head := []string{"Section", sec.Name}
	if sec.Header != "" {
		head = append(head, sec.Header)
	}

	if sec.HeaderOnly {
		head[len(head)-1] += " (header only)"
	}

	put.line(0, head...)

	printBody(put, sec.Body, 1)
}

func printBody(put *outline, body []Statement, indent int) {
	for _, st := range body {
		switch st := st.(type) {
		case *Assignment:
			put.line(indent, "Assignment", st.Target+" "+st.Op+" "+st.Value.String())

		case *CallStatement:
			put.line(indent, "Call", st.Call.String())

		case *Directive:
			value := st.Text
			if st.Mode == grammar.DirectiveExpr {
				value = joinExprs(st.Values, ", ")
			}

			if st.Name == "" {
				put.line(indent, "Text", value)
			} else {
				put.line(indent, "Directive", st.Name, value)
			}

		case *ParamDecl:
			value := joinExprs(st.Values, ", ")
			if st.To != nil {
				value = st.From.String() + " to " + st.To.String()
				if st.Step != nil {
					value += " step " + st.Step.String()
				}
			}

			put.line(indent, "Parameter", st.Name, value)

		case *Conditional:
			for i, b := range st.Branches {
				kw := "If"
				if i > 0 {
					kw = "ElseIf"
				}

				put.line(indent, kw, b.Cond.String())
				printBody(put, b.Body, indent+1)
			}

			if st.HasElse {
				put.line(indent, "Else")
				printBody(put, st.Else, indent+1)
			}
		}
	}
}
