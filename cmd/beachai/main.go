// Package main is the beachai command: an assistant that answers questions
// about US beaches from live tide, weather and places data.
//
//	beachai serve                 start the HTTP API
//	beachai ask "tide at ..."     answer one question in the terminal
//	beachai tools                 print the tool catalog
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config  string `short:"f" long:"config" description:"config file (JSON or YAML); default ~/.config/beachai/config.json"`
	Verbose bool   `short:"v" long:"verbose" description:"log component activity to stderr"`

	Serve ServeCmd `command:"serve" description:"Start the HTTP API"`
	Ask   AskCmd   `command:"ask" description:"Ask one question and print the answer"`
	Tools ToolsCmd `command:"tools" description:"Print the tool catalog as JSON"`
}

var options Options

func main() {
	parser := flags.NewParser(&options, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		// flags.Default prints the error, including those from Execute.
		os.Exit(1)
	}
}
