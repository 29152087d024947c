package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-calculator/internal/client"
)

func newListCmd(app *App, conn connect) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show saved calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := client.ParseSortMode(sort)
			if err != nil {
				return err
			}
			c, err := conn()
			if err != nil {
				return err
			}
			if _, err := requireSession(c); err != nil {
				return err
			}
			items, err := c.Dashboard().Load(cmd.Context(), mode)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(app.Out, "No saved calculations yet.")
				return nil
			}
			fmt.Fprintln(app.Out, app.formatter().cards(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&sort, "sort", "s", string(client.SortNewest), "sort order (newest, oldest, type)")
	return cmd
}

func newDeleteCmd(app *App, conn connect) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			if _, err := requireSession(c); err != nil {
				return err
			}
			dash := c.Dashboard()
			if _, err := dash.Load(cmd.Context(), client.SortNewest); err != nil {
				return err
			}
			if err := dash.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Deleted %s (%d left)\n", args[0], len(dash.Items()))
			return nil
		},
	}
}

func newExportCmd(app *App, conn connect) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download a saved calculation as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			if _, err := requireSession(c); err != nil {
				return err
			}
			exp, err := c.Dashboard().ExportPDF(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "PDF:     %s\n", exp.PDF)
			fmt.Fprintf(app.Out, "Preview: %s\n", exp.Preview)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	return cmd
}
