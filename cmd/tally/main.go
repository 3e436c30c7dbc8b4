// Package main provides the tally CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the root command with the given arguments and streams and
// returns the process exit code.
func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(errOut, "Error:", err)
	if isInputUnavailable(err) {
		fmt.Fprintln(errOut, "Set the input file with --input or input_file in config.yaml.")
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitUserError
}
