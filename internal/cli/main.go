// Package cli is the dubcut command surface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/report"
)

type app struct {
	getenv func(string) string
	stdout io.Writer
	stderr io.Writer
}

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	a := app{getenv: os.Getenv, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.execute(os.Args[1:]))
}

func (a app) execute(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	if sf, ok := failure.AsStageFailure(err); ok {
		fmt.Fprint(a.stderr, report.Failure(sf))
	}
	fmt.Fprintln(a.stderr, err)
	return failure.ExitCode(err)
}

func (a app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dubcut",
		Short:        "Dub a clip of a Kannada video into Hindi",
		SilenceUsage: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SilenceErrors = true

	root.AddCommand(a.runCmd(), a.configCmd())
	return root
}

// usageError marks flag problems so they exit like validation failures.
func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", failure.ErrValidation, fmt.Sprintf(format, args...))
}
