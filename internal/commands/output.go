package commands

import (
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func printTable(w io.Writer, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, pterm.Success.Sprintfln(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, pterm.Warning.Sprintfln(format, args...))
}

// PrintError writes err the way every command failure is shown.
func PrintError(w io.Writer, err error) {
	fmt.Fprint(w, pterm.Error.Sprintln(capitalize(err.Error())))
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// output returns the writer for an --out flag and a function that closes it.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
