package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	upMarker      = "-- +goose Up"
	downMarker    = "-- +goose Down"
	versionLayout = "20060102150405"
)

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	unsafeRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

// RequiredConstraints are the database guarantees the storefront code relies
// on: one cart per user, one line per product in a cart, positive cart
// quantities, unique order UUIDs, one transaction per order and one review
// per order and user.
var RequiredConstraints = []string{
	"ux_users_email",
	"ux_carts_user",
	"ux_cart_items_cart_product",
	"chk_cart_items_quantity_positive",
	"ux_orders_order_uuid",
	"ux_transactions_order",
	"ux_reviews_order_user",
}

type migrationFile struct {
	version int64
	name    string
	path    string
	up      string
	down    string
}

// readMigrations parses every .sql file in dir, ordered by version.
func readMigrations(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	files := make([]migrationFile, 0, len(entries))
	byVersion := make(map[int64]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, e.Name())
		}
		byVersion[version] = e.Name()

		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", path, err)
		}
		up, down, err := splitSections(string(raw))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", e.Name(), err)
		}
		files = append(files, migrationFile{version: version, name: m[2], path: path, up: up, down: down})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

func splitSections(sql string) (up, down string, err error) {
	upAt := strings.Index(sql, upMarker)
	downAt := strings.Index(sql, downMarker)
	switch {
	case upAt < 0:
		return "", "", fmt.Errorf("missing %q", upMarker)
	case downAt < 0:
		return "", "", fmt.Errorf("missing %q", downMarker)
	case downAt < upAt:
		return "", "", fmt.Errorf("%q must come before %q", upMarker, downMarker)
	}
	return sql[upAt+len(upMarker) : downAt], sql[downAt+len(downMarker):], nil
}

// ValidateDir checks file names, version uniqueness and that each file has
// an Up section followed by a Down section.
func ValidateDir(dir string) error {
	_, err := readMigrations(dir)
	return err
}

// ValidateSchema runs ValidateDir and then replays the Up sections in version
// order, failing when one of the required constraints is never declared or is
// dropped by a later migration.
func ValidateSchema(dir string, required []string) error {
	files, err := readMigrations(dir)
	if err != nil {
		return err
	}

	declared := make(map[string]bool, len(required))
	for _, f := range files {
		up := strings.ToLower(f.up)
		for _, name := range required {
			if dropsConstraint(up, name) {
				declared[name] = false
			} else if strings.Contains(up, "constraint "+name+" ") {
				declared[name] = true
			}
		}
	}

	var missing []string
	for _, name := range required {
		if !declared[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required constraints missing after all migrations: %s", strings.Join(missing, ", "))
	}
	return nil
}

func dropsConstraint(up, name string) bool {
	return strings.Contains(up, "drop constraint "+name) ||
		strings.Contains(up, "drop constraint if exists "+name)
}

// CreateSQLMigration writes an empty goose migration named after name. The
// version is the current UTC time, bumped past the newest existing file so
// two migrations created in the same second still sort correctly.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(unsafeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := readMigrations(dir)
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(time.Now().UTC().Format(versionLayout), 10, 64)
	if n := len(existing); n > 0 && existing[n-1].version >= version {
		version = existing[n-1].version + 1
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n-- revert %s\n-- +goose StatementEnd\n",
		upMarker, slug, downMarker, slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}
