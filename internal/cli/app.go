// Package cli is the calc command line: sign-in, solving, and the saved
// calculation dashboard on top of internal/client.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ai-calculator/internal/client"
)

const defaultAPIURL = "http://localhost:8080"

type App struct {
	Out    io.Writer
	Err    io.Writer
	In     io.Reader
	GetEnv func(string) string
	Now    func() time.Time

	// Styled enables lipgloss cards; Interactive enables prompts.
	Styled      bool
	Interactive bool

	HTTPClient *http.Client

	// ReadSecret reads a line without echo. Nil falls back to prompt.
	ReadSecret func() (string, error)

	in *bufio.Reader
}

func DefaultApp() *App {
	app := &App{
		Out:         os.Stdout,
		Err:         os.Stderr,
		In:          os.Stdin,
		GetEnv:      os.Getenv,
		Now:         time.Now,
		Styled:      isTerminal(os.Stdout),
		Interactive: isTerminal(os.Stdin),
	}
	if app.Interactive {
		app.ReadSecret = func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(b), err
		}
	}
	return app
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// connect builds a client for one command run.
type connect func() (*client.Client, error)

func (a *App) connector(apiURL *string) connect {
	return func() (*client.Client, error) {
		store, err := client.NewStore(a.GetEnv)
		if err != nil {
			return nil, fmt.Errorf("failed to locate session store: %w", err)
		}
		url := *apiURL
		if url == "" {
			url = a.GetEnv("CALC_API_URL")
		}
		if url == "" {
			url = defaultAPIURL
		}
		opts := []client.Option{client.WithClock(a.Now)}
		if a.HTTPClient != nil {
			opts = append(opts, client.WithHTTPClient(a.HTTPClient))
		}
		return client.New(url, store, opts...), nil
	}
}

// prompt writes label to Err and reads one line from In.
func (a *App) prompt(label string) (string, error) {
	if a.in == nil {
		a.in = bufio.NewReader(a.In)
	}
	fmt.Fprint(a.Err, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewRootCmd assembles the calc command tree.
func NewRootCmd(app *App, version string) *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Solve equations, Laplace transforms and Fourier series",
		Long: `calc is the command line client of calc_service.

Expressions are typed as plain text and converted to LaTeX, or loaded from a
handwriting editor export with --draw-export.

Examples:
  calc login alice
  calc solve "x^2 - 1 = 0"
  calc solve --op laplace "t^2e^(-3t)"
  calc solve --op fourier "x^2[-3.14,3.14]"
  calc list --sort type
  calc export <id> --dir ./pdf`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)
	cmd.SetIn(app.In)
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "calc_service base URL (defaults to CALC_API_URL or "+defaultAPIURL+")")

	conn := app.connector(&apiURL)
	cmd.AddCommand(
		newLoginCmd(app, conn),
		newRegisterCmd(app, conn),
		newLogoutCmd(app, conn),
		newWhoamiCmd(app, conn),
		newSolveCmd(app, conn),
		newSaveCmd(app, conn),
		newListCmd(app, conn),
		newDeleteCmd(app, conn),
		newExportCmd(app, conn),
	)
	return cmd
}
