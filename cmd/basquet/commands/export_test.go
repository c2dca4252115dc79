package commands

import "io"

// SetArgs sets the arguments of the root command.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}

// SetOut redirects command output.
func (a *App) SetOut(w io.Writer) {
	a.cmd.SetOut(w)
}
