package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/admin-areas/internal/export"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Summarise a graph snapshot",
	Long:  "Parses a text graph snapshot written by extract and prints its section counts and areas.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "inspect: open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		g, err := export.ReadGraph(bufio.NewReader(f))
		if err != nil {
			return eris.Wrapf(err, "inspect: %s", args[0])
		}

		showAreas, _ := cmd.Flags().GetBool("areas")
		formatGraphSummary(cmd.OutOrStdout(), g, showAreas)
		return nil
	},
}

func formatGraphSummary(out io.Writer, g *export.Graph, showAreas bool) {
	_, _ = fmt.Fprintf(out, "Nodes:    %d\n", len(g.Points))
	_, _ = fmt.Fprintf(out, "Segments: %d\n", len(g.Segments))
	_, _ = fmt.Fprintf(out, "Areas:    %d\n", len(g.Areas))

	if !showAreas || len(g.Areas) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLEVEL\tNAME\tOUTER\tINNER")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t-----\t-----")
	for _, a := range g.Areas {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\n", a.ID, a.Level, a.Name, len(a.Outer), len(a.Inner))
	}
	_ = w.Flush()
}

func init() {
	inspectCmd.Flags().Bool("areas", false, "list every area")
	rootCmd.AddCommand(inspectCmd)
}
