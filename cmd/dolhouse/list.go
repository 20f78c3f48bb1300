package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/utils"
	"github.com/spf13/cobra"
)

var (
	showHashes bool
	listFlat   bool
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the folders and files of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := newManager()
		defer manager.Close()

		src, err := manager.OpenSource(args[0])
		if err != nil {
			return err
		}

		a := src.Archive
		fmt.Printf("%s (%s nodes, %s files", args[0], utils.Number(int64(len(a.Nodes))), utils.Number(int64(len(a.Files()))))
		if src.Compressed {
			fmt.Print(", yay0")
		}
		fmt.Println(")")

		return printTree(os.Stdout, a, listFlat, showHashes)
	},
}

// printTree writes one line per entry, either indented by depth or as full
// paths
func printTree(w io.Writer, a *rarc.Archive, flat, hashes bool) error {
	return a.Walk(func(p string, e *rarc.Entry) error {
		var line strings.Builder

		if hashes {
			fmt.Fprintf(&line, "%04x  ", e.Hash)
		}

		name := e.Name
		if flat {
			name = p
		} else {
			line.WriteString(strings.Repeat("  ", strings.Count(p, "/")))
		}

		if e.IsFolder() {
			fmt.Fprintf(&line, "%s/", name)
		} else {
			fmt.Fprintf(&line, "%s  %s", name, utils.Bytes(int64(len(e.Data))))
		}

		_, err := fmt.Fprintln(w, line.String())
		return err
	})
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&showHashes, "hashes", false, "show the stored name hash of each entry")
	listCmd.Flags().BoolVar(&listFlat, "flat", false, "print full paths instead of a tree")
}
