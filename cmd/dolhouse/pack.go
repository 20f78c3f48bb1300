package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/utils"
	"github.com/jchantrell/dolhouse/internal/yay0"
	"github.com/spf13/cobra"
)

var (
	packYay0 bool
	packRoot string
)

var packCmd = &cobra.Command{
	Use:   "pack <dir> <archive>",
	Short: "Build an archive from a directory",
	Long: `Pack builds an archive holding every file and folder below dir. The root
node is named after the directory unless --root is given. Use --yay0 to
compress the result.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, out := args[0], args[1]

		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		builder, err := rarc.FromFS(os.DirFS(dir), ".")
		if err != nil {
			return err
		}

		a, err := builder.Build()
		if err != nil {
			return fmt.Errorf("building archive: %w", err)
		}

		root := packRoot
		if root == "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			root = filepath.Base(abs)
		}
		a.Nodes[0].Name = root
		a.Nodes[0].Hash = rarc.Hash(root)

		data, err := rarc.Marshal(a)
		if err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
		size := len(data)

		if packYay0 {
			data, err = yay0.Compress(data)
			if err != nil {
				return fmt.Errorf("compressing archive: %w", err)
			}
		}

		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		slog.Info("Packed archive", "dir", dir, "output", out, "nodes", len(a.Nodes), "files", a.Info.FileCount)
		fmt.Printf("Wrote %s (%s", out, utils.Bytes(int64(len(data))))
		if packYay0 {
			fmt.Printf(", %s uncompressed", utils.Bytes(int64(size)))
		}
		fmt.Println(")")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().BoolVar(&packYay0, "yay0", false, "compress the archive with Yay0")
	packCmd.Flags().StringVar(&packRoot, "root", "", "name of the root node")
}
