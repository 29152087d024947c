package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ai-calculator/internal/inputmode"
	"ai-calculator/internal/models"
)

type inputFlags struct {
	op         string
	drawExport string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.op, "op", "o", "solve", "operation (solve, laplace, fourier)")
	cmd.Flags().StringVar(&f.drawExport, "draw-export", "", "handwriting editor export (JSON) to solve instead of typed text")
}

// markup turns the command input into solver markup through the input-mode
// controller: typed text goes through text mode, an editor export through
// draw mode.
func (f *inputFlags) markup(args []string) (latex, interval string, op models.OperationType, err error) {
	op, err = models.ParseOperation(f.op)
	if err != nil {
		return "", "", "", err
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text != "" && f.drawExport != "" {
		return "", "", "", errors.New("give either an expression or --draw-export, not both")
	}

	rec := inputmode.NewExportRecognizer()
	ctrl := inputmode.NewController(inputmode.NewDrawMode(rec, nil), inputmode.NewTextMode())
	if f.drawExport == "" {
		if err := ctrl.Select(inputmode.TextName); err != nil {
			return "", "", "", err
		}
		ctrl.Text().SetOperation(op)
		ctrl.Text().SetText(text)
		latex, err = ctrl.Current().ProduceMarkup()
		return latex, ctrl.Text().Interval(), op, err
	}

	file, err := os.Open(f.drawExport)
	if err != nil {
		return "", "", "", err
	}
	defer file.Close()
	if err := rec.Import(file); err != nil {
		return "", "", "", fmt.Errorf("reading %s: %w", f.drawExport, err)
	}
	latex, err = ctrl.Current().ProduceMarkup()
	return latex, "", op, err
}

func newSolveCmd(app *App, conn connect) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "solve [expression]",
		Short: "Solve an expression; signed-in results are saved automatically",
		RunE: func(cmd *cobra.Command, args []string) error {
			latex, interval, op, err := in.markup(args)
			if err != nil {
				return err
			}
			c, err := conn()
			if err != nil {
				return err
			}
			res, err := c.Solve(cmd.Context(), latex, op, interval)
			if err != nil {
				return err
			}
			f := app.formatter()
			fmt.Fprint(app.Out, f.result(res))
			switch {
			case res.Saved != nil:
				fmt.Fprintln(app.Out, f.dim(fmt.Sprintf("Saved as %q (%s)", res.Saved.Title, res.Saved.ID)))
			case res.SaveErr != nil:
				fmt.Fprintf(app.Err, "Warning: %v\n", res.SaveErr)
			default:
				fmt.Fprintln(app.Out, f.dim("Sign in to keep your calculations."))
			}
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func newSaveCmd(app *App, conn connect) *cobra.Command {
	var (
		in    inputFlags
		title string
	)
	cmd := &cobra.Command{
		Use:   "save [expression]",
		Short: "Solve an expression and save it under a title",
		RunE: func(cmd *cobra.Command, args []string) error {
			latex, interval, op, err := in.markup(args)
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
			if !cmd.Flags().Changed("title") && app.Interactive {
				if title, err = app.prompt("Title (optional): "); err != nil {
					return err
				}
			}
			res, err := c.SolveAndSave(cmd.Context(), latex, op, interval, title)
			if err != nil {
				return err
			}
			f := app.formatter()
			fmt.Fprint(app.Out, f.result(res))
			fmt.Fprintf(app.Out, "Saved as %q (%s)\n", res.Saved.Title, res.Saved.ID)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&title, "title", "t", "", "title of the saved calculation (server default when empty)")
	return cmd
}
