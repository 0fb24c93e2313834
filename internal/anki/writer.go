package anki

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

const collectionSchema = `
CREATE TABLE col (
    id integer primary key, crt integer not null, mod integer not null, scm integer not null,
    ver integer not null, dty integer not null, usn integer not null, ls integer not null,
    conf text not null, models text not null, decks text not null, dconf text not null, tags text not null
);
CREATE TABLE notes (
    id integer primary key, guid text not null, mid integer not null, mod integer not null,
    usn integer not null, tags text not null, flds text not null, sfld integer not null,
    csum integer not null, flags integer not null, data text not null
);
CREATE TABLE cards (
    id integer primary key, nid integer not null, did integer not null, ord integer not null,
    mod integer not null, usn integer not null, type integer not null, queue integer not null,
    due integer not null, ivl integer not null, factor integer not null, reps integer not null,
    lapses integer not null, left integer not null, odue integer not null, odid integer not null,
    flags integer not null, data text not null
);
CREATE TABLE revlog (
    id integer primary key, cid integer not null, usn integer not null, ease integer not null,
    ivl integer not null, lastIvl integer not null, factor integer not null, time integer not null,
    type integer not null
);
CREATE TABLE graves (usn integer not null, oid integer not null, type integer not null);
CREATE INDEX ix_notes_usn on notes (usn);
CREATE INDEX ix_cards_usn on cards (usn);
CREATE INDEX ix_revlog_usn on revlog (usn);
CREATE INDEX ix_cards_nid on cards (nid);
CREATE INDEX ix_cards_sched on cards (did, queue, due);
CREATE INDEX ix_revlog_cid on revlog (cid);
CREATE INDEX ix_notes_csum on notes (csum);
`

const deckOptions = `{"1": {"autoplay": true, "dyn": false, "id": 1, "maxTaken": 60, "mod": 0, "name": "Default",
"new": {"bury": true, "delays": [1, 10], "initialFactor": 2500, "ints": [1, 4, 7], "order": 1, "perDay": 20, "separate": true},
"lapse": {"delays": [10], "leechAction": 0, "leechFails": 8, "minInt": 1, "mult": 0},
"rev": {"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1, "maxIvl": 36500, "minSpace": 1, "perDay": 100},
"replayq": true, "timer": 0, "usn": 0}}`

const (
	schemaVersion = 11
	mediaEntry    = "media"
)

type fieldJSON struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type templateJSON struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

type modelJSON struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      int            `json:"type"`
	Mod       int64          `json:"mod"`
	Usn       int            `json:"usn"`
	Sortf     int            `json:"sortf"`
	Did       int64          `json:"did"`
	Tmpls     []templateJSON `json:"tmpls"`
	Flds      []fieldJSON    `json:"flds"`
	CSS       string         `json:"css"`
	LatexPre  string         `json:"latexPre"`
	LatexPost string         `json:"latexPost"`
	Tags      []string       `json:"tags"`
	Vers      []int          `json:"vers"`
	Req       [][]any        `json:"req"`
}

type deckJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	Collapsed bool   `json:"collapsed"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	LrnToday  [2]int `json:"lrnToday"`
	TimeToday [2]int `json:"timeToday"`
}

const latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n" +
	"\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// WritePackage writes notes into a new package at path, one card per note in deck.
func WritePackage(ctx context.Context, path string, deck Deck, notes []models.Note) error {
	return writePackage(ctx, path, deck, notes, time.Now())
}

func writePackage(ctx context.Context, path string, deck Deck, notes []models.Note, now time.Time) error {
	if deck.Name == "" {
		deck = DefaultDeck()
	}

	dir, err := os.MkdirTemp("", "greekdeck-package-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	collection := filepath.Join(dir, legacyCollection)
	if err := buildCollection(ctx, collection, deck, notes, now); err != nil {
		return err
	}
	return zipPackage(path, collection)
}

func buildCollection(ctx context.Context, path string, deck Deck, notes []models.Note, now time.Time) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.ExecContext(ctx, collectionSchema); err != nil {
		return fmt.Errorf("failed to create collection schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCollectionRow(ctx, tx, deck, now); err != nil {
		return err
	}

	noteStmt, err := tx.PrepareContext(ctx, "INSERT INTO notes VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')")
	if err != nil {
		return fmt.Errorf("failed to prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := tx.PrepareContext(ctx, "INSERT INTO cards VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')")
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer cardStmt.Close()

	base := now.UnixMilli()
	mod := now.Unix()
	for i, note := range notes {
		noteID := base + int64(i)
		cardID := base + int64(len(notes)) + int64(i)
		fields := note.Fields()

		guid := note.GUID
		if guid == "" {
			guid = GUIDFor(fields...)
		}
		sortField := stripHTML(fields[0])

		_, err := noteStmt.ExecContext(ctx, noteID, guid, ModelID, mod, formatTags(note.Tags),
			strings.Join(fields, fieldSeparator), sortField, checksum(sortField))
		if err != nil {
			return fmt.Errorf("failed to insert note %d: %w", i, err)
		}
		if _, err := cardStmt.ExecContext(ctx, cardID, noteID, deck.ID, mod, i+1); err != nil {
			return fmt.Errorf("failed to insert card %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

func insertCollectionRow(ctx context.Context, tx *sql.Tx, deck Deck, now time.Time) error {
	mod := now.Unix()
	model := modelJSON{
		ID:    ModelID,
		Name:  ModelName,
		Mod:   mod,
		Usn:   -1,
		Did:   deck.ID,
		Tmpls: []templateJSON{{Name: TemplateName, QFmt: QuestionFormat, AFmt: AnswerFormat}},
		CSS:   CardCSS,

		LatexPre:  latexPre,
		LatexPost: "\\end{document}",
		Tags:      []string{},
		Vers:      []int{},
		Req:       [][]any{{0, "all", []int{1}}},
	}
	for i, name := range FieldNames {
		model.Flds = append(model.Flds, fieldJSON{Name: name, Ord: i, Font: "Arial", Size: 20, Media: []string{}})
	}

	decks := map[string]deckJSON{
		"1": newDeckJSON(1, "Default", mod),
	}
	decks[strconv.FormatInt(deck.ID, 10)] = newDeckJSON(deck.ID, deck.Name, mod)

	conf := map[string]any{
		"activeDecks":   []int64{deck.ID},
		"curDeck":       deck.ID,
		"curModel":      strconv.FormatInt(ModelID, 10),
		"addToCur":      true,
		"collapseTime":  1200,
		"dueCounts":     true,
		"estTimes":      true,
		"newBury":       true,
		"newSpread":     0,
		"nextPos":       1,
		"sortBackwards": false,
		"sortType":      "noteFld",
		"timeLim":       0,
	}

	modelsData, err := json.Marshal(map[string]modelJSON{strconv.FormatInt(ModelID, 10): model})
	if err != nil {
		return fmt.Errorf("failed to encode note type: %w", err)
	}
	decksData, err := json.Marshal(decks)
	if err != nil {
		return fmt.Errorf("failed to encode decks: %w", err)
	}
	confData, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("failed to encode collection config: %w", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO col VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')",
		mod, now.UnixMilli(), now.UnixMilli(), schemaVersion, string(confData), string(modelsData), string(decksData), deckOptions)
	if err != nil {
		return fmt.Errorf("failed to insert collection row: %w", err)
	}
	return nil
}

func newDeckJSON(id int64, name string, mod int64) deckJSON {
	return deckJSON{ID: id, Name: name, Mod: mod, Usn: -1, Conf: 1, ExtendNew: 10, ExtendRev: 50}
}

func zipPackage(path, collection string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	zw := zip.NewWriter(out)
	err = addFile(zw, legacyCollection, collection)
	if err == nil {
		err = addBytes(zw, mediaEntry, []byte("{}"))
	}
	if cerr := zw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish package: %w", cerr)
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close package: %w", cerr)
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func formatTags(tags []string) string {
	tags = MergeTags(nil, tags...)
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagPattern.ReplaceAllString(s, "")))
}

// checksum is the integer value of the first 8 hex digits of the SHA-1 of s.
func checksum(s string) int64 {
	sum := sha1.Sum([]byte(s))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:4]), 16, 64)
	return v
}

const base91Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// GUIDFor returns a stable note GUID for the given field values.
func GUIDFor(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "__")))
	n := binary.BigEndian.Uint64(sum[:8])
	if n == 0 {
		return string(base91Alphabet[0])
	}

	var out []byte
	for n > 0 {
		out = append(out, base91Alphabet[n%91])
		n /= 91
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
