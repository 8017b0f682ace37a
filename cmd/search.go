package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var (
	flagFilesOnly bool
	flagLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-shot search against the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&flagFilesOnly, "files-only", false, "match file names only")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 25, "maximum number of hits")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	query := strings.Join(args, " ")
	hits, err := st.Search(context.Background(), query, flagFilesOnly, flagLimit)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}

	if len(hits) == 0 {
		color.Yellow("No matches for %q", query)
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("KIND", "FILE", "HEADING", "SCORE")
	for _, h := range hits {
		heading := ""
		if h.HasHeading {
			heading = fmt.Sprintf("H%d %s", h.HeadingLevel, h.HeadingText)
		}
		table.AddRow(h.Kind, h.RelativePath, heading, fmt.Sprintf("%.3f", h.Score))
	}

	color.Cyan("%d hits for %q\n", len(hits), query)
	fmt.Println(table)
	return nil
}
