package main

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // import sqlite3 driver
	"github.com/pkg/errors"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/config"
)

// tile payload extensions
const (
	JSON   = "json"
	JSONGZ = "json.gz"
)

// Sink stores encoded tiles
type Sink interface {
	Save(id cell.ID, data []byte) error
	WriteMetadata(meta map[string]string) error
	Close() error
}

func newSink(c *config.Conf) (Sink, error) {
	ext := JSON
	if c.Output.Gzip {
		ext = JSONGZ
	}
	switch c.Output.Format {
	case config.FormatSqlite:
		if err := os.MkdirAll(c.Output.Directory, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "create output directory")
		}
		return newSqliteSink(filepath.Join(c.Output.Directory, c.Output.Sqlite))
	default:
		return newFileSink(c.Output.Directory, c.Output.PathTemplate, ext)
	}
}

// tilePath expands {face}, {z}, {x} and {y} in template.
func tilePath(template string, id cell.ID) string {
	face, z, x, y := id.ToFaceIJ()
	path := strings.Replace(template, "{face}", strconv.Itoa(int(face)), -1)
	path = strings.Replace(path, "{z}", strconv.Itoa(z), -1)
	path = strings.Replace(path, "{x}", strconv.FormatUint(uint64(x), 10), -1)
	path = strings.Replace(path, "{y}", strconv.FormatUint(uint64(y), 10), -1)
	return path
}

// fileSink writes one file per tile below dir
type fileSink struct {
	dir      string
	template string
	ext      string
}

func newFileSink(dir, template, ext string) (*fileSink, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}
	return &fileSink{dir: dir, template: template, ext: ext}, nil
}

func (s *fileSink) path(id cell.ID) string {
	template := s.template
	if template == "" {
		template = "{z}/{x}/{y}"
		if id.Projection() == cell.S2 {
			template = "{face}/{z}/{x}/{y}"
		}
	}
	return filepath.Join(s.dir, filepath.FromSlash(tilePath(template, id))+"."+s.ext)
}

func (s *fileSink) Save(id cell.ID, data []byte) error {
	name := s.path(id)
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return errors.Wrapf(err, "create %s tile dir", id)
	}
	return errors.Wrapf(os.WriteFile(name, data, 0o644), "write %s tile file", id)
}

func (s *fileSink) WriteMetadata(meta map[string]string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(s.dir, "metadata.json"), data, 0o644), "write metadata")
}

func (s *fileSink) Close() error { return nil }

// sqliteSink mbtiles like database; a face column carries the cube face
type sqliteSink struct {
	db *sql.DB
}

func newSqliteSink(file string) (*sqliteSink, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", file)
	}
	// one connection, the database is locked exclusively
	db.SetMaxOpenConns(1)
	stmts := []string{
		"PRAGMA synchronous=0",
		"PRAGMA locking_mode=EXCLUSIVE",
		"PRAGMA journal_mode=DELETE",
		"create table if not exists tiles (face integer, zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
		"create table if not exists metadata (name text, value text);",
		"create unique index if not exists name on metadata (name);",
		"create unique index if not exists tile_index on tiles(face, zoom_level, tile_column, tile_row);",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "setup %s", file)
		}
	}
	return &sqliteSink{db: db}, nil
}

// Save stores the tile; flat tiles use the TMS row like mbtiles.
func (s *sqliteSink) Save(id cell.ID, data []byte) error {
	face, z, x, y := id.ToFaceIJ()
	row := int64(y)
	if id.Projection() == cell.WM {
		row = int64(1)<<uint(z) - 1 - int64(y)
	}
	_, err := s.db.Exec("insert or replace into tiles (face, zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?, ?);",
		face, z, x, row, data)
	return errors.Wrapf(err, "insert %s tile", id)
}

func (s *sqliteSink) WriteMetadata(meta map[string]string) error {
	for k, v := range meta {
		if _, err := s.db.Exec("insert or replace into metadata (name, value) values (?, ?);", k, v); err != nil {
			return errors.Wrapf(err, "insert metadata %s", k)
		}
	}
	return nil
}

func (s *sqliteSink) Close() error {
	if _, err := s.db.Exec("ANALYZE;"); err != nil {
		s.db.Close()
		return errors.Wrap(err, "analyze")
	}
	return s.db.Close()
}
