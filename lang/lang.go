package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"

	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/log"
)

// DefaultMaxDepth is the default limit on nested blocks, parentheses,
// argument lists, index expressions, and unary operands.
const DefaultMaxDepth = 256

// Option configures tokenizing and parsing.
type Option func(*config)

type config struct {
	table    *grammar.Table
	maxDepth int
	comments bool
	logger   log.Logger // zero value discards
}

func makeConfig(opts ...Option) config {
	cfg := config{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.table == nil {
		cfg.table = grammar.Default()
	}

	if cfg.maxDepth <= 0 {
		cfg.maxDepth = DefaultMaxDepth
	}

	return cfg
}

// WithGrammar selects the grammar table. The default is [grammar.Default].
func WithGrammar(t *grammar.Table) Option {
	return func(c *config) { c.table = t }
}

// WithMaxDepth limits nesting depth. Non-positive values select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(c *config) { c.maxDepth = depth }
}

// WithComments makes [Tokenize] emit COMMENT tokens. The parser ignores them.
func WithComments(enable bool) Option {
	return func(c *config) { c.comments = enable }
}

// WithLogger sets the logger for trace-level parser output.
// If not provided, all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// ParseString tokenizes and parses a complete script. The error is a
// [*LexError], a [*SyntaxError], or the context's error.
func ParseString(ctx context.Context, source string, opts ...Option) (*Script, error) {
	cfg := makeConfig(opts...)

	toks, err := Tokenize(source, opts...)
	if err != nil {
		cfg.logger.TraceContext(ctx, "tokenize failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "tokenized",
		slog.Int("source_bytes", len(source)),
		slog.Int("tokens", len(toks)),
	)

	return parseTokens(ctx, toks, cfg)
}

// ParseReader reads r to the end and parses it as a script.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Script, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseTokens parses a token sequence produced by [Tokenize]. COMMENT tokens
// are skipped and a missing final EOF is supplied.
func ParseTokens(ctx context.Context, toks []Token, opts ...Option) (*Script, error) {
	return parseTokens(ctx, toks, makeConfig(opts...))
}

func parseTokens(ctx context.Context, toks []Token, cfg config) (*Script, error) {
	p := newParser(ctx, toks, cfg)

	script, err := p.parseScript()
	if err != nil {
		cfg.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("sections", len(script.Sections)))

	return script, nil
}

// ParseExpression parses source as a single expression, optionally followed
// by line breaks.
func ParseExpression(ctx context.Context, source string, opts ...Option) (Expression, error) {
	cfg := makeConfig(opts...)

	toks, err := Tokenize(source, opts...)
	if err != nil {
		return nil, err
	}

	p := newParser(ctx, toks, cfg)
	p.skipNewlines()

	x, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	p.skipNewlines()

	if !p.atKind(KindEOF) {
		return nil, p.fail("unexpected token after expression")
	}

	return x, nil
}

// readAll drains r through a read-ahead buffer.
func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return data, nil
}
