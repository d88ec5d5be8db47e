package grammar

// Description is the declarative form of a grammar table. It is what grammar
// files decode into and what [Table.Description] returns for dumping.
type Description struct {
	Name      string         `yaml:"name"                json:"name"                toml:"name"`
	Version   string         `yaml:"version"             json:"version"             toml:"version"`
	Keywords  KeywordSet     `yaml:"keywords,omitempty"  json:"keywords,omitzero"   toml:"keywords,omitempty"`
	Separator string         `yaml:"separator,omitempty" json:"separator,omitempty" toml:"separator,omitempty"`
	Assign    []string       `yaml:"assign,omitempty"    json:"assign,omitempty"    toml:"assign,omitempty"`
	Operators []OperatorSpec `yaml:"operators"           json:"operators"           toml:"operators"`
	Sections  []SectionSpec  `yaml:"sections"            json:"sections"            toml:"sections"`
	Functions []FunctionSpec `yaml:"functions,omitempty" json:"functions,omitempty" toml:"functions,omitempty"`
}

// KeywordSet names the structural keywords. Empty fields take the values of
// [DefaultKeywords].
type KeywordSet struct {
	End    string `yaml:"end,omitempty"    json:"end,omitempty"    toml:"end,omitempty"    hcl:"end,optional"`
	If     string `yaml:"if,omitempty"     json:"if,omitempty"     toml:"if,omitempty"     hcl:"if,optional"`
	Then   string `yaml:"then,omitempty"   json:"then,omitempty"   toml:"then,omitempty"   hcl:"then,optional"`
	ElseIf string `yaml:"elseif,omitempty" json:"elseif,omitempty" toml:"elseif,omitempty" hcl:"elseif,optional"`
	Else   string `yaml:"else,omitempty"   json:"else,omitempty"   toml:"else,omitempty"   hcl:"else,optional"`
	From   string `yaml:"from,omitempty"   json:"from,omitempty"   toml:"from,omitempty"   hcl:"from,optional"`
	To     string `yaml:"to,omitempty"     json:"to,omitempty"     toml:"to,omitempty"     hcl:"to,optional"`
	Step   string `yaml:"step,omitempty"   json:"step,omitempty"   toml:"step,omitempty"   hcl:"step,optional"`
}

// DefaultKeywords is the keyword set used for fields a description leaves
// empty.
var DefaultKeywords = KeywordSet{
	End:    "End",
	If:     "If",
	Then:   "Then",
	ElseIf: "ElseIf",
	Else:   "Else",
	From:   "from",
	To:     "to",
	Step:   "step",
}

// withDefaults fills empty keyword fields from [DefaultKeywords].
func (k KeywordSet) withDefaults() KeywordSet {
	fill := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}

	fill(&k.End, DefaultKeywords.End)
	fill(&k.If, DefaultKeywords.If)
	fill(&k.Then, DefaultKeywords.Then)
	fill(&k.ElseIf, DefaultKeywords.ElseIf)
	fill(&k.Else, DefaultKeywords.Else)
	fill(&k.From, DefaultKeywords.From)
	fill(&k.To, DefaultKeywords.To)
	fill(&k.Step, DefaultKeywords.Step)

	return k
}

// all returns the keywords paired with their role names.
func (k KeywordSet) all() [][2]string {
	return [][2]string{
		{"end", k.End},
		{"if", k.If},
		{"then", k.Then},
		{"elseif", k.ElseIf},
		{"else", k.Else},
		{"from", k.From},
		{"to", k.To},
		{"step", k.Step},
	}
}

// OperatorSpec declares one operator. Operators with the same lexeme may be
// declared once as binary and once as unary.
type OperatorSpec struct {
	Lexeme     string `yaml:"lexeme"          json:"lexeme"          toml:"lexeme"`
	Precedence int    `yaml:"precedence"      json:"precedence"      toml:"precedence"`
	Assoc      string `yaml:"assoc,omitempty" json:"assoc,omitempty" toml:"assoc,omitempty"`
	Unary      bool   `yaml:"unary,omitempty" json:"unary,omitempty" toml:"unary,omitempty"`
}

// SectionSpec declares a section and the statement forms its body accepts.
type SectionSpec struct {
	Name       string   `yaml:"name"                json:"name"                toml:"name"`
	Statements []string `yaml:"statements"          json:"statements"          toml:"statements"`
	Directive  string   `yaml:"directive,omitempty" json:"directive,omitempty" toml:"directive,omitempty"`
	Singleton  bool     `yaml:"singleton,omitempty" json:"singleton,omitempty" toml:"singleton,omitempty"`
}

// FunctionSpec declares the advisory arity of a built-in function.
// A zero Max means Max equals Min.
type FunctionSpec struct {
	Name     string `yaml:"name"               json:"name"               toml:"name"`
	Min      int    `yaml:"min"                json:"min"                toml:"min"`
	Max      int    `yaml:"max,omitempty"      json:"max,omitempty"      toml:"max,omitempty"`
	Variadic bool   `yaml:"variadic,omitempty" json:"variadic,omitempty" toml:"variadic,omitempty"`
}
