package anki

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

const (
	legacyCollection = "collection.anki2"
	latestCollection = "collection.anki21b"

	// maxCollectionSize caps the decompressed size of a collection database.
	maxCollectionSize = 50 << 20

	fieldSeparator = "\x1f"
)

// ReadNotes returns every note stored in the package at path.
//
// Packages exported by recent Anki versions carry a zstd-compressed collection.anki21b,
// which takes precedence over the legacy collection.anki2.
func ReadNotes(ctx context.Context, path string) ([]models.Note, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("package not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open package: %w", err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
		names = append(names, f.Name)
	}

	tmp, err := os.CreateTemp("", "greekdeck-collection-*.db")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp collection: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	switch {
	case entries[latestCollection] != nil:
		err = extractCompressed(entries[latestCollection], tmp)
	case entries[legacyCollection] != nil:
		err = extractPlain(entries[legacyCollection], tmp)
	default:
		err = fmt.Errorf("%w: %s has entries [%s]", shared.ErrMissingCollection, path, strings.Join(names, ", "))
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to write temp collection: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	return readCollection(ctx, tmpPath)
}

func extractPlain(f *zip.File, w io.Writer) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	return copyLimited(w, rc, f.Name, maxCollectionSize)
}

func extractCompressed(f *zip.File, w io.Writer) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	dec, err := zstd.NewReader(rc, zstd.WithDecoderMaxMemory(maxCollectionSize))
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	return copyLimited(w, dec, f.Name, maxCollectionSize)
}

// copyLimited copies at most limit bytes of the named entry and fails if more remain.
func copyLimited(w io.Writer, r io.Reader, name string, limit int64) error {
	n, err := io.Copy(w, io.LimitReader(r, limit+1))
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if n > limit {
		return fmt.Errorf("%w: %s exceeds %d bytes when extracted", shared.ErrInvalidInput, name, limit)
	}
	return nil
}

func readCollection(ctx context.Context, path string) ([]models.Note, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, 1, 1)

	rows, err := db.QueryContext(ctx, "SELECT id, guid, flds, tags FROM notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var (
			id   int64
			guid string
			flds string
			tags sql.NullString
		)
		if err := rows.Scan(&id, &guid, &flds, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, models.NoteFromFields(id, guid, strings.Split(flds, fieldSeparator), strings.Fields(tags.String)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return notes, nil
}
