// Package importer parses importer command flags and bulk-loads AASX
// files from a directory into the repository store.
package importer

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/aasx"
	pkgimporter "github.com/industrialdt/aashub/internal/importer"
	entrypoint "github.com/industrialdt/aashub/internal/platform/cmd"
	"github.com/industrialdt/aashub/internal/platform/id"
	"github.com/industrialdt/aashub/internal/storage"
	"github.com/industrialdt/aashub/internal/storage/sqlite"
)

// Config holds importer command configuration.
type Config struct {
	DBPath string `env:"AASHUB_DB_PATH" envDefault:"aashub.db"`
	Dir    string `env:"AASHUB_IMPORT_DIR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "Directory of .aasx files to import")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run uploads and imports every AASX container under the directory.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if strings.TrimSpace(cfg.Dir) == "" {
		return fmt.Errorf("import directory is required")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceImporter, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("importer close storage: %v", err)
			}
		}()

		coordinator := pkgimporter.New(store, aasx.NewZipDecoder())
		paths, err := containerPaths(cfg.Dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no .aasx files under %s", cfg.Dir)
		}

		imported := 0
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := importFile(ctx, store, coordinator, path); err != nil {
				fmt.Fprintf(out, "failed %s: %v\n", filepath.Base(path), err)
				continue
			}
			fmt.Fprintf(out, "imported %s\n", filepath.Base(path))
			imported++
		}
		fmt.Fprintf(out, "done: %d/%d imported\n", imported, len(paths))
		return nil
	})
}

func containerPaths(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".aasx") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

func importFile(ctx context.Context, store *sqlite.Store, coordinator *pkgimporter.Coordinator, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	packageID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("mint package id: %w", err)
	}
	if err := store.PutPackage(ctx, storage.PackageRecord{
		ID:        packageID,
		Filename:  filepath.Base(path),
		SizeBytes: int64(len(blob)),
		Status:    aas.PackageUploaded,
		CreatedAt: time.Now().UTC(),
	}, blob); err != nil {
		return fmt.Errorf("store package: %w", err)
	}

	if _, err := coordinator.Import(ctx, packageID); err != nil {
		return fmt.Errorf("import package: %w", err)
	}
	return nil
}
