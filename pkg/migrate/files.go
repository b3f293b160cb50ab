package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	migrationNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe          = regexp.MustCompile(`[^a-z0-9]+`)
)

type migrationFile struct {
	version int64
	name    string
}

func parseMigrationName(filename string) (migrationFile, error) {
	m := migrationNameRe.FindStringSubmatch(filename)
	if m == nil {
		return migrationFile{}, fmt.Errorf("invalid migration filename %q (want %s_name.sql)", filename, versionLayout)
	}
	version, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return migrationFile{}, fmt.Errorf("migration %q: %w", filename, err)
	}
	return migrationFile{version: version, name: filename}, nil
}

// ValidateDir checks the migrations in dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	fsys, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return err
	}
	return ValidateFS(fsys)
}

// ValidateFS requires every .sql file to carry a unique version, an Up
// section followed by a Down section, and balanced statement blocks.
func ValidateFS(fsys fs.FS) error {
	files, err := listMigrations(fsys)
	if err != nil {
		return err
	}
	for i, f := range files {
		if i > 0 && files[i-1].version == f.version {
			return fmt.Errorf("duplicate migration version %d in %q and %q", f.version, files[i-1].name, f.name)
		}
		body, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.name, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", f.name, err)
		}
	}
	return nil
}

func listMigrations(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		f, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

func checkAnnotations(sql string) error {
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf(`missing "-- +goose Up"`)
	case down < 0:
		return fmt.Errorf(`missing "-- +goose Down"`)
	case down < up:
		return fmt.Errorf("down section precedes up section")
	}
	if begins, ends := strings.Count(sql, "-- +goose StatementBegin"), strings.Count(sql, "-- +goose StatementEnd"); begins != ends {
		return fmt.Errorf("unbalanced statement blocks (%d begin, %d end)", begins, ends)
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration into dir. The version is
// the current UTC time, bumped past the newest existing file if the clock is
// behind it.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := listMigrations(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	version := time.Now().UTC()
	if n := len(existing); n > 0 {
		latest, err := time.Parse(versionLayout, strconv.FormatInt(existing[n-1].version, 10))
		if err == nil && !version.After(latest) {
			version = latest.Add(time.Second)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version.Format(versionLayout), slug))
	body := "-- +goose Up\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n"
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	return path, nil
}
