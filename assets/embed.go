// Package assets embeds the files the server ships with: SQL migrations for
// the game store and the locale message catalogs.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql locales/*.yaml
var FS embed.FS

// Migrations returns the migration file names in apply order.
func Migrations() ([]string, error) {
	return listDir("migrations", ".sql")
}

// LocaleFiles returns the catalog file names, one per locale.
func LocaleFiles() ([]string, error) {
	return listDir("locales", ".yaml")
}

// Read returns the content of an embedded file, e.g. "migrations/001_games.sql".
func Read(name string) ([]byte, error) {
	return fs.ReadFile(FS, name)
}

func listDir(dir, ext string) ([]string, error) {
	entries, err := fs.ReadDir(FS, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			continue
		}
		out = append(out, path.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
