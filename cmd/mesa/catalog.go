package main

import (
	dbsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/mesadb/mesa/collation"
	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/tables"
)

// tableSpec is one catalog entry. Which fields matter depends on type.
type tableSpec struct {
	Type string `mapstructure:"type"`

	// csv, parquet, sqlite
	Path string `mapstructure:"path"`
	// csv
	Delimiter string `mapstructure:"delimiter"`
	// parquet_set
	Pattern string `mapstructure:"pattern"`
	Workers int    `mapstructure:"workers"`
	// http
	URL string `mapstructure:"url"`
	// sqlite
	Table    string `mapstructure:"table"`
	IDColumn string `mapstructure:"id_column"`
	// awk
	Program string   `mapstructure:"program"`
	Columns []string `mapstructure:"columns"`
	Inputs  []string `mapstructure:"inputs"`
	// memory
	Sort          string `mapstructure:"sort"`
	Desc          bool   `mapstructure:"desc"`
	SequentialIDs bool   `mapstructure:"sequential_ids"`

	// Per-table collation, any type.
	Collate string `mapstructure:"collate"`
}

// catalog is the mesa.yaml layout.
type catalog struct {
	Collation string               `mapstructure:"collation"`
	UnsafeDML bool                 `mapstructure:"unsafe_dml"`
	Tables    map[string]tableSpec `mapstructure:"tables"`
}

// loadCatalog reads the catalog from path, or searches the working
// directory and ~/.mesa when path is empty. A missing default catalog is
// not an error; the shell still works against an empty database.
// Environment variables prefixed MESA_ override file values.
func loadCatalog(path string) (*catalog, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mesa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mesa"))
		}
	}
	v.SetEnvPrefix("MESA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			slog.Debug("no catalog file found, starting empty")
			return &catalog{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat catalog
	if err := v.Unmarshal(&cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	slog.Debug("catalog loaded", "file", v.ConfigFileUsed(), "tables", len(cat.Tables))
	return &cat, nil
}

// openDB builds an engine from the catalog and registers every declared
// table.
func openDB(cat *catalog) (*engine.DB, error) {
	var opts []engine.Option
	if cat.Collation != "" {
		coll, err := collation.Get(cat.Collation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithCollation(coll))
	}
	if cat.UnsafeDML {
		opts = append(opts, engine.WithUnsafeDML())
	}
	db := engine.New(opts...)

	for name, spec := range cat.Tables {
		t, err := buildTable(spec)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		var topts []engine.TableOption
		if spec.Collate != "" {
			coll, err := collation.Get(spec.Collate)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", name, err)
			}
			topts = append(topts, engine.TableWithCollation(coll))
		}
		db.Register(name, t, topts...)
		slog.Debug("registered table", "name", name, "type", spec.Type)
	}
	return db, nil
}

func buildTable(spec tableSpec) (engine.Table, error) {
	switch strings.ToLower(spec.Type) {
	case "memory":
		var opts []tables.MemoryOption
		if spec.SequentialIDs {
			opts = append(opts, tables.MemoryWithSequentialIDs())
		}
		if spec.Sort != "" {
			var coll collation.Collator
			if spec.Collate != "" {
				c, err := collation.Get(spec.Collate)
				if err != nil {
					return nil, err
				}
				coll = c
			}
			opts = append(opts, tables.MemoryWithSort(spec.Sort, spec.Desc, coll))
		}
		return tables.NewMemory(opts...), nil

	case "csv":
		if spec.Path == "" {
			return nil, fmt.Errorf("csv table needs path")
		}
		var opts []tables.CSVOption
		if spec.Delimiter != "" {
			runes := []rune(spec.Delimiter)
			if len(runes) != 1 {
				return nil, fmt.Errorf("delimiter must be a single character, got %q", spec.Delimiter)
			}
			opts = append(opts, tables.CSVWithComma(runes[0]))
		}
		return tables.NewCSV(spec.Path, opts...), nil

	case "parquet":
		if spec.Path == "" {
			return nil, fmt.Errorf("parquet table needs path")
		}
		return tables.NewParquet(spec.Path), nil

	case "parquet_set":
		if spec.Pattern == "" {
			return nil, fmt.Errorf("parquet_set table needs pattern")
		}
		var opts []tables.ParquetSetOption
		if spec.Workers > 0 {
			opts = append(opts, tables.ParquetSetWithWorkers(spec.Workers))
		}
		return tables.NewParquetSet(spec.Pattern, opts...), nil

	case "http":
		if spec.URL == "" {
			return nil, fmt.Errorf("http table needs url")
		}
		return tables.NewHTTP(spec.URL), nil

	case "sqlite":
		if spec.Path == "" || spec.Table == "" {
			return nil, fmt.Errorf("sqlite table needs path and table")
		}
		conn, err := dbsql.Open("sqlite", spec.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", spec.Path, err)
		}
		idCol := spec.IDColumn
		if idCol == "" {
			idCol = "id"
		}
		return tables.NewSQLDB(conn, spec.Table, idCol), nil

	case "awk":
		if spec.Program == "" {
			return nil, fmt.Errorf("awk table needs program")
		}
		return tables.NewAWK(spec.Program, spec.Columns, spec.Inputs...)

	case "":
		return nil, fmt.Errorf("missing table type")
	default:
		return nil, fmt.Errorf("unknown table type %q", spec.Type)
	}
}
