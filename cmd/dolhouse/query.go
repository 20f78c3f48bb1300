package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jchantrell/dolhouse/internal/database"
	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the archive catalog",
	Long: `Query executes SQL against the catalog built by index, lists the
catalog tables, shows a table schema or finds entries by name.

Names are matched through their stored hash first, so --find is fast on
large catalogs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}
		find, err := cmd.Flags().GetString("find")
		if err != nil {
			return fmt.Errorf("failed to get find flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable,
			"find", find)

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		switch {
		case listTables:
			return runQuery(ctx, db, os.Stdout,
				`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)

		case schemaTable != "":
			return runQuery(ctx, db, os.Stdout,
				`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, schemaTable)

		case find != "":
			has, err := db.HasCatalog(ctx)
			if err != nil {
				return err
			}
			if !has {
				return fmt.Errorf("no catalog in %s, run dolhouse index first", db.Path())
			}
			return runQuery(ctx, db, os.Stdout, `
SELECT a.path AS archive, e.path, e.is_folder, e.size
FROM entries e JOIN archives a ON a.id = e.archive_id
WHERE e.hash = ? AND e.name = ?
ORDER BY a.path, e.path`, rarc.Hash(find), find)

		case len(args) > 0:
			slog.Debug("Executing SQL query", "query", args[0])
			return runQuery(ctx, db, os.Stdout, args[0])
		}

		return fmt.Errorf("no query provided, use --tables to list tables, --schema <table> to show a schema or --find <name> to search entries")
	},
}

// runQuery prints the rows of a query as tab separated columns under a header
func runQuery(ctx context.Context, db *database.Database, w io.Writer, query string, args ...any) error {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	return printRows(w, rows)
}

func printRows(w io.Writer, rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}

	separators := make([]string, len(columns))
	for i, col := range columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	fmt.Fprintln(w, strings.Join(separators, "\t"))

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	fields := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		for i, val := range values {
			switch v := val.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(v)
			default:
				fields[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List catalog tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().String("find", "", "Find entries with this exact name")
}
