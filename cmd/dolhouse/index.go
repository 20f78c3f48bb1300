package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jchantrell/dolhouse/internal/archive"
	"github.com/jchantrell/dolhouse/internal/database"
	"github.com/jchantrell/dolhouse/internal/utils"
	"github.com/spf13/cobra"
)

type IndexStats struct {
	StartTime        time.Time
	EndTime          time.Time
	TotalArchives    int
	IndexedArchives  int
	EntriesInserted  int64
	ProcessingErrors int
	DatabaseErrors   int
}

var indexCmd = &cobra.Command{
	Use:   "index <dir|archive>...",
	Short: "Catalogue archives into the SQLite database",
	Long: `Index finds archives below the given directories by their magic bytes,
parses them and stores their folders and files in the catalog database.
Archives that are already catalogued are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		stats := &IndexStats{StartTime: time.Now()}

		var paths []string
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				paths = append(paths, arg)
				continue
			}

			found, err := archive.Discover(arg)
			if err != nil {
				return fmt.Errorf("discovering archives: %w", err)
			}
			paths = append(paths, found...)
		}
		stats.TotalArchives = len(paths)

		if len(paths) == 0 {
			slog.Info("No archives found")
			return nil
		}

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		catalog := database.NewCatalog(db)
		if err := catalog.CreateSchema(ctx); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		inserter := database.NewBulkInserter(db, database.DefaultBulkInsertOptions())

		manager := newManager()
		defer manager.Close()

		slog.Info("Indexing archives", "count", len(paths), "database", cfg.Database)
		progress := utils.NewProgress("index", len(paths), !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				progress.Finish()
				return fmt.Errorf("indexing canceled: %w", err)
			}

			progress.Update(i+1, path)

			src, err := manager.OpenSource(path)
			manager.Release(path)
			if err != nil {
				slog.Warn("Skipping archive", "path", path, "error", err)
				stats.ProcessingErrors++
				continue
			}

			record := &database.ArchiveRecord{
				Path:       src.Path,
				Size:       src.Size,
				Compressed: src.Compressed,
				Archive:    src.Archive,
			}
			if _, err := inserter.InsertArchive(ctx, record); err != nil {
				slog.Error("Failed to catalogue archive", "path", path, "error", err)
				stats.DatabaseErrors++
				continue
			}

			stats.EntriesInserted += int64(len(database.EntryRows(src.Archive)))
			stats.IndexedArchives++
		}

		progress.Finish()
		stats.EndTime = time.Now()
		duration := stats.EndTime.Sub(stats.StartTime)

		var rate float64
		if duration.Seconds() > 0 {
			rate = float64(stats.EntriesInserted) / duration.Seconds()
		}

		catalogStats, err := catalog.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Archives indexed: %d/%d\n", stats.IndexedArchives, stats.TotalArchives)
		fmt.Printf("Entries inserted: %s\n", utils.Number(stats.EntriesInserted))
		fmt.Printf("Processing errors: %d\n", stats.ProcessingErrors)
		fmt.Printf("Database errors: %d\n", stats.DatabaseErrors)
		fmt.Printf("Total duration: %s\n", utils.Duration(duration))
		fmt.Printf("Insertion rate: %s entries/sec\n", utils.Rate(rate))
		fmt.Printf("Catalog: %s archives, %s entries, %s files\n",
			utils.Number(catalogStats.Archives), utils.Number(catalogStats.Entries), utils.Number(catalogStats.Files))
		fmt.Println("Try running: dolhouse query --tables")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
