package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"proverka/internal/api"
	"proverka/internal/config"
	"proverka/internal/dsl"
	"proverka/internal/pg"
	"proverka/internal/reference"
	"proverka/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the table schema",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the schema and report problems",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg, cfg.Logger(io.Discard))
		if issues, ok := schema.AsLintError(err); ok {
			out := cmd.OutOrStdout()
			for _, it := range issues {
				fmt.Fprintln(out, it.String())
			}
			return fmt.Errorf("%d schema issue(s)", len(issues))
		}
		if err != nil {
			return err
		}
		// те же проверки, что выполняются при старте serve
		if err := api.CheckTableNames(reg); err != nil {
			return err
		}
		if _, err := pg.GenerateDDL(cfg.JournalSchema, reg.Tables()); err != nil {
			return err
		}
		printTables(cmd.OutOrStdout(), reg)
		return nil
	},
}

var schemaDDLCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print PostgreSQL DDL for the journal tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg, cfg.Logger(io.Discard))
		if err != nil {
			return err
		}
		ddl, err := pg.GenerateDDL(cfg.JournalSchema, reg.Tables())
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(ddl))
		for k := range ddl {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := cmd.OutOrStdout()
		for _, k := range keys {
			fmt.Fprintf(out, "-- %s\n%s\n", k, strings.TrimSpace(ddl[k]))
		}
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaCheckCmd)
	schemaCmd.AddCommand(schemaDDLCmd)
}

// loadRegistry читает схемы и справочники. Каталог справочников может отсутствовать.
func loadRegistry(cfg config.Config, logger *slog.Logger) (*schema.Registry, error) {
	defs, err := dsl.Load(cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	catalogs := map[string]reference.EnumDirectory{}
	if cfg.EnumsDir != "" {
		catalogs, err = reference.LoadEnumCatalog(cfg.EnumsDir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("enum catalogs directory not found", "dir", cfg.EnumsDir)
			catalogs = map[string]reference.EnumDirectory{}
		case err != nil:
			return nil, fmt.Errorf("load enum catalogs: %w", err)
		}
	}

	reg, err := schema.Build(defs, catalogs)
	if err != nil {
		return nil, err
	}
	logger.Info("schema loaded", "tables", reg.Len(), "catalogs", len(catalogs))
	return reg, nil
}

func printTables(w io.Writer, reg *schema.Registry) {
	for _, t := range reg.Tables() {
		fmt.Fprintf(w, "table %s (key %s", t.Name(), t.Key())
		if t.Display() != "" {
			fmt.Fprintf(w, ", display %s", t.Display())
		}
		fmt.Fprintln(w, ")")
		for _, f := range t.Fields() {
			var flags []string
			if f.Required() {
				flags = append(flags, "required")
			}
			if f.Generated() {
				flags = append(flags, "generated")
			}
			if f.Catalog() != "" {
				flags = append(flags, fmt.Sprintf("catalog=%s%v", f.Catalog(), f.Allowed()))
			}
			fmt.Fprintf(w, "  %s: %s %s\n", f.JSONName(), f.Kind(), strings.Join(flags, " "))
		}
	}
}
