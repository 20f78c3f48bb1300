package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jchantrell/dolhouse/internal/export"
	"github.com/jchantrell/dolhouse/internal/utils"
	"github.com/spf13/cobra"
)

type ExtractionStats struct {
	StartTime         time.Time
	EndTime           time.Time
	TotalArchives     int
	ExtractedArchives int
	FilesWritten      int64
	BytesWritten      int64
	Errors            int
}

var (
	outputDir        string
	decompressNested bool
	extractFiles     []string
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>...",
	Short: "Extract the files of one or more archives",
	Long: `Extract writes every file of each archive below the output directory,
in a folder named after the archive. Yay0 compressed archives are
decompressed first.

Use --files to extract only some paths and --decompress-nested to also
decompress Yay0 images stored inside the archive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("output") {
			cfg.Output = outputDir
		}
		if cmd.Flags().Changed("decompress-nested") {
			cfg.DecompressNested = decompressNested
		}

		stats := &ExtractionStats{
			StartTime:     time.Now(),
			TotalArchives: len(args),
		}

		manager := newManager()
		defer manager.Close()

		var decompressor export.Decompressor
		if cfg.DecompressNested {
			decompressor = manager
		}

		for _, archivePath := range args {
			a, err := manager.Open(archivePath)
			if err != nil {
				slog.Error("Failed to open archive", "path", archivePath, "error", err)
				stats.Errors++
				continue
			}

			files := extractFiles
			if len(files) == 0 {
				for _, f := range a.Files() {
					files = append(files, f.Path)
				}
			}

			target := filepath.Join(cfg.Output, archiveName(archivePath))
			slog.Info("Extracting archive", "path", archivePath, "output", target, "files", len(files))

			progress := utils.NewProgress(archiveName(archivePath), len(files), !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

			report := func(current, total int, description string) {
				progress.Update(current, description)
			}

			exporter := export.NewExporter(a.FS(), target, decompressor)
			if len(extractFiles) == 0 {
				err = exporter.ExportAll(report)
			} else {
				err = exporter.ExportFiles(files, report)
			}
			progress.Finish()

			if err != nil {
				slog.Error("Failed to extract archive", "path", archivePath, "error", err)
				stats.Errors++
				continue
			}

			for _, p := range files {
				if e, _, ok := a.Lookup(p); ok && e != nil {
					stats.BytesWritten += int64(len(e.Data))
				}
			}
			stats.FilesWritten += int64(len(files))
			stats.ExtractedArchives++
		}

		stats.EndTime = time.Now()
		duration := stats.EndTime.Sub(stats.StartTime)

		var rate float64
		if duration.Seconds() > 0 {
			rate = float64(stats.FilesWritten) / duration.Seconds()
		}

		fmt.Printf("Archives extracted: %d/%d\n", stats.ExtractedArchives, stats.TotalArchives)
		fmt.Printf("Files written: %s\n", utils.Number(stats.FilesWritten))
		fmt.Printf("Bytes written: %s\n", utils.Bytes(stats.BytesWritten))
		fmt.Printf("Errors: %d\n", stats.Errors)
		fmt.Printf("Total duration: %s\n", utils.Duration(duration))
		fmt.Printf("Extraction rate: %s files/sec\n", utils.Rate(rate))

		if stats.Errors > 0 {
			return fmt.Errorf("%d of %d archives failed", stats.Errors, stats.TotalArchives)
		}
		return nil
	},
}

// archiveName strips directories and extensions from an archive path
func archiveName(p string) string {
	base := filepath.Base(p)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default extracted)")
	extractCmd.Flags().BoolVar(&decompressNested, "decompress-nested", false, "decompress Yay0 images stored inside archives")
	extractCmd.Flags().StringSliceVar(&extractFiles, "files", []string{}, "comma-separated list of archive paths to extract")
}
