package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/migration"
	"github.com/customers/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// migrator is the part of *migration.Migrator the database commands drive
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set; also where create writes (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(context.Background(), args, migrationsPath, log, os.Stdout)
	_ = logger.Sync(log)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		os.Exit(2)
	case err != nil:
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, dir string, log *zap.Logger, out io.Writer) error {
	if handled, err := runFileCommand(args, dirOrDefault(dir), log, out); handled {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	mcfg := migration.Config{Schema: cfg.Database.Schema, FS: migrations.FS}
	if dir != "" {
		mcfg.FS, mcfg.Dir = nil, dir
	}
	m, err := migration.New(ctx, db, mcfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return runDBCommand(m, args, log)
}

// runFileCommand handles the commands that only touch migration files
func runFileCommand(args []string, dir string, log *zap.Logger, out io.Writer) (bool, error) {
	switch args[0] {
	case "create":
		if len(args) < 2 {
			return true, fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		var description string
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			return true, err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return true, nil

	case "list":
		files, err := migration.ListMigrations(dir)
		if err != nil {
			return true, err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, "No migrations found")
			return true, nil
		}
		for _, f := range files {
			fmt.Fprintln(out, f.BaseName())
		}
		return true, nil
	}
	return false, nil
}

func runDBCommand(m migrator, args []string, log *zap.Logger) error {
	arg := func(usage string) (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%w: migrate %s", errUsage, usage)
		}
		return args[1], nil
	}

	switch args[0] {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		raw, err := arg("step <n>")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n == 0 {
			return fmt.Errorf("%w: step count must be a non-zero integer, got %q", errUsage, raw)
		}
		return m.Steps(n)

	case "goto":
		raw, err := arg("goto <version>")
		if err != nil {
			return err
		}
		version, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", errUsage, raw)
		}
		return m.GoTo(uint(version))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil

	case "force":
		raw, err := arg("force <version>")
		if err != nil {
			return err
		}
		version, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", errUsage, raw)
		}
		log.Warn("Forcing migration version", zap.Int("version", version))
		return m.Force(version)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func dirOrDefault(path string) string {
	if path == "" {
		return defaultMigrationsPath
	}
	return path
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Customers database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (clears the dirty flag)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded set; ./migrations for create/list)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment:
  CUSTOMERS_DATABASE_HOST, CUSTOMERS_DATABASE_PORT, CUSTOMERS_DATABASE_USER,
  CUSTOMERS_DATABASE_PASSWORD, CUSTOMERS_DATABASE_DBNAME, CUSTOMERS_DATABASE_SCHEMA`)
}
