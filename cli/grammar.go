package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/johncclayton/rt-grammar/cli/cmd"
	"github.com/johncclayton/rt-grammar/lang/grammar"
	"github.com/johncclayton/rt-grammar/log"
)

type grammarConfig struct {
	File    string `help:"Grammar description file." placeholder:"PATH" type:"existingfile"`
	Format  string `default:"" enum:",${grammarFormatEnum}" help:"Grammar file format (default: from the extension)."`
	Require string `help:"Version constraint the grammar must satisfy, such as ^1.2." placeholder:"CONSTRAINT"`
}

func (grammarConfig) vars() kong.Vars {
	formats := make([]string, 0, len(grammar.Formats()))
	for _, f := range grammar.Formats() {
		formats = append(formats, string(f))
	}

	return kong.Vars{"grammarFormatEnum": strings.Join(formats, ",")}
}

func (grammarConfig) group() kong.Group {
	var group kong.Group

	group.Key = "grammar"
	group.Title = "Grammar options"

	return group
}

// load loads the selected grammar. A failure aborts the command before any
// script is read.
func (f grammarConfig) load(ctx context.Context) (*cmd.Loaded, error) {
	l, err := cmd.LoadGrammar(f.File, f.Format, f.Require)
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "grammar loaded",
		slog.String("source", l.Source),
		slog.String("grammar", l.Table.String()),
		slog.Int("sections", len(l.Table.Sections())),
	)

	return l, nil
}
