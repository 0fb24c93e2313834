package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/greekdeck/internal/anki"
	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/shared"
	"github.com/desertthunder/greekdeck/internal/tasks"
)

// Export writes the notes of a deck package as CSV, Markdown or plain text.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	apkg := cmd.Args().First()
	if apkg == "" {
		return fmt.Errorf("%w: APKG path", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseExportFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	notes, err := anki.ReadNotes(ctx, apkg)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(notes, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("exported notes", "apkg", apkg, "format", format, "path", path)
	return r.writePlain("✓ Exported %d note(s) to %s\n", len(notes), path)
}

// Tag adds tags to every note of a package and writes the result to a new package.
func (r *Runner) Tag(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: APKG and at least one tag", shared.ErrMissingArgument)
	}
	apkg, tags := args[0], args[1:]

	notes, err := anki.ReadNotes(ctx, apkg)
	if err != nil {
		return err
	}

	out := cmd.String("output")
	if out == "" {
		out = taggedPath(apkg)
	}
	deck := r.deck()
	if name := cmd.String("deck-name"); name != "" {
		deck = anki.NewDeck(name)
	}

	if err := anki.WritePackage(ctx, out, deck, tasks.TagNotes(notes, tags)); err != nil {
		return err
	}
	return r.writePlain("✓ Tagged %d note(s) with %s -> %s\n", len(notes), strings.Join(tags, ", "), out)
}

// taggedPath derives deck_tagged.apkg from deck.apkg.
func taggedPath(apkg string) string {
	ext := filepath.Ext(apkg)
	return strings.TrimSuffix(apkg, ext) + "_tagged.apkg"
}
