package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"
)

const versionWidth = 6

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Version}}_{{.Name}} ({{.Direction}})
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// MigrationFile is one up/down pair on disk
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// BaseName is the shared prefix of the up and down files, e.g.
// 000002_add_customer_phone
func (f MigrationFile) BaseName() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, f.Version, f.Name)
}

// CreateMigration writes an empty up/down pair numbered one past the
// highest existing version in dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	mf := &MigrationFile{Version: next, Name: slug}
	mf.UpPath = filepath.Join(dir, mf.BaseName()+".up.sql")
	mf.DownPath = filepath.Join(dir, mf.BaseName()+".down.sql")

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeMigrationFile(mf.UpPath, mf, "up", description, created); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, mf, "down", description, created); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigrationFile(path string, mf *MigrationFile, direction, description, created string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	return fileTemplate.Execute(f, map[string]any{
		"Version":     fmt.Sprintf("%0*d", versionWidth, mf.Version),
		"Name":        mf.Name,
		"Direction":   direction,
		"Created":     created,
		"Description": description,
	})
}

// sanitizeName lower-cases name and collapses every run of separators
// into one underscore, dropping anything else
func sanitizeName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-' || r == '_':
			pending = true
		}
	}
	return b.String()
}

// ListMigrations returns the up/down pairs in dir ordered by version.
// Files that do not follow <version>_<name>.up.sql are ignored and a
// missing directory yields no migrations.
func ListMigrations(dir string) ([]MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []MigrationFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		rawVersion, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(rawVersion, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, MigrationFile{
			Version:  uint(version),
			Name:     name,
			UpPath:   filepath.Join(dir, entry.Name()),
			DownPath: filepath.Join(dir, base+".down.sql"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}
