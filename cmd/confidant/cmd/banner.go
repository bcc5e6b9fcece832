package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const banner = `
                  __ _     _             _
  ___ ___  _ __  / _(_) __| | __ _ _ __ | |_
 / __/ _ \| '_ \| |_| |/ _` + "`" + ` |/ _` + "`" + ` | '_ \| __|
| (_| (_) | | | |  _| | (_| | (_| | | | | |_
 \___\___/|_| |_|_| |_|\__,_|\__,_|_| |_|\__|
`

func printBanner(w io.Writer) {
	color.New(color.FgBlue).Fprint(w, banner)
	color.New(color.FgGreen).Fprintf(w, "  Password-protected directories - Version %s\n\n", Version)
}

func success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "! "+format+"\n", args...)
}

func failure(w io.Writer, err error) {
	color.New(color.FgRed).Fprintf(w, "✗ %v\n", err)
}

func showRecoveryPhrase(w io.Writer, phrase, file string) {
	fmt.Fprintln(w, "Recovery phrase:")
	color.New(color.FgMagenta).Fprintf(w, "   %s\n", phrase)
	fmt.Fprintf(w, "It is shown once and saved to %s. Store it somewhere safe and delete the file.\n", file)
}
