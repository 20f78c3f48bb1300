package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jchantrell/dolhouse/internal/utils"
	"github.com/jchantrell/dolhouse/internal/yay0"
	"github.com/spf13/cobra"
)

var yay0Cmd = &cobra.Command{
	Use:   "yay0",
	Short: "Compress or decompress Yay0 images",
}

var yay0CompressCmd = &cobra.Command{
	Use:   "compress <in> <out>",
	Short: "Compress a file into a Yay0 image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(args[0], args[1], "compress", yay0.Compress)
	},
}

var yay0DecompressCmd = &cobra.Command{
	Use:   "decompress <in> <out>",
	Short: "Decompress a Yay0 image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(args[0], args[1], "decompress", func(data []byte) ([]byte, error) {
			return newManager().Decompress(data)
		})
	},
}

func convert(in, out, op string, fn func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := fn(data)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, in, err)
	}

	if err := os.WriteFile(out, result, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	slog.Debug("Converted", "op", op, "in", in, "out", out, "duration", time.Since(start))
	fmt.Printf("%s: %s -> %s in %s\n", out, utils.Bytes(int64(len(data))), utils.Bytes(int64(len(result))), utils.Duration(time.Since(start)))
	return nil
}

func init() {
	rootCmd.AddCommand(yay0Cmd)
	yay0Cmd.AddCommand(yay0CompressCmd)
	yay0Cmd.AddCommand(yay0DecompressCmd)
}
