package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/davidkroell/edustack"
	"github.com/rs/zerolog/log"
)

var (
	stack *edustack.Stack
	motd  = `#####################################################################
###                     __           __             __            ###
###          ___  ____/ /_  _______/ /_____ ______/ /__           ###
###         / _ \/ __  / / / / ___/ __/ __ ` + "`" + `/ ___/ //_/           ###
###        /  __/ /_/ / /_/ (__  ) /_/ /_/ / /__/ ,<              ###
###        \___/\__,_/\__,_/____/\__/\__,_/\___/_/|_|             ###
#####################################################################`
)

func executor(ctx context.Context) prompt.Executor {
	return func(in string) {
		in = strings.TrimSpace(in)
		if in == "" || in == "exit" {
			return
		}

		cmd := shellRootCommand(ctx)
		cmd.SetArgs(strings.Fields(in))
		if err := cmd.Execute(); err != nil {
			log.Debug().Err(err).Msgf("command %q failed", in)
		}
	}
}

func deviceSuggestions() []prompt.Suggest {
	s := []prompt.Suggest{}
	for _, dev := range stack.Devices() {
		s = append(s, prompt.Suggest{Text: dev.Name, Description: dev.Type.String()})
	}
	return s
}

func completer(doc prompt.Document) []prompt.Suggest {
	var s []prompt.Suggest

	text := doc.TextBeforeCursor()
	splitted := strings.Fields(text)

	var argToComplete string

	if len(splitted) > 1 && strings.HasPrefix(splitted[len(splitted)-1], "-") {
		argToComplete = splitted[len(splitted)-1]
	} else if len(splitted) > 2 && strings.HasPrefix(splitted[len(splitted)-2], "-") && doc.GetWordBeforeCursor() != "" {
		argToComplete = splitted[len(splitted)-2]
	}

	// top-level prompt
	s = []prompt.Suggest{
		{Text: "version", Description: "show version"},
		{Text: "help", Description: "show help"},
		{Text: "exit", Description: "exit edustack"},
		{Text: "ping", Description: "ping a host"},
		{Text: "stats", Description: "show device counters"},

		{Text: "route", Description: "show or configure the IP routes"},
		{Text: "if", Description: "show the devices and their interfaces"},
		{Text: "log", Description: "show or configure the log level"},
	}

	// top-level commands
	if strings.HasPrefix(text, "version") ||
		strings.HasPrefix(text, "help") ||
		strings.HasPrefix(text, "exit") ||
		strings.HasPrefix(text, "stats") {
		s = []prompt.Suggest{}
	}

	if strings.HasPrefix(text, "ping") {
		s = []prompt.Suggest{
			{Text: "-n", Description: "number of pings"},
			{Text: "-i", Description: "interval"},
			{Text: "-s", Description: "payload size"},
		}
	}

	if strings.HasPrefix(text, "route") {
		switch argToComplete {
		case "-i", "--interface":
			s = deviceSuggestions()

		case "-a", "--address", "--next-hop":
			s = []prompt.Suggest{}

		default:
			s = []prompt.Suggest{
				{Text: "list", Description: "list all routes"},
				{Text: "add", Description: "add a static route"},
				{Text: "default", Description: "set the default gateway"},
				{Text: "del", Description: "delete a route"},
				{Text: "get", Description: "show the route for an address"},
			}

			if strings.HasPrefix(text, "route add") {
				s = []prompt.Suggest{
					{Text: "-i"},
					{Text: "--interface"},
					{Text: "-a"},
					{Text: "--address"},
					{Text: "--next-hop"},
				}
			}

			if strings.HasPrefix(text, "route default") {
				s = []prompt.Suggest{
					{Text: "-i"},
					{Text: "--interface"},
				}
			}
		}
	}

	if strings.HasPrefix(text, "log") {
		s = []prompt.Suggest{
			{Text: "none", Description: "disable logging"},
			{Text: "debug", Description: "set loglevel to debug"},
			{Text: "info", Description: "set loglevel to info"},
			{Text: "error", Description: "set loglevel to error"},
		}
	}

	if strings.HasPrefix(text, "if") {
		s = []prompt.Suggest{
			{Text: "list", Description: "list all devices"},
		}
	}

	return prompt.FilterHasPrefix(s, doc.GetWordBeforeCursor(), true)
}

func exitChecker(in string, breakline bool) bool {
	return in == "exit" && breakline
}

// ExecutePrompt runs the interactive shell on the running stack s until
// the user exits.
func ExecutePrompt(ctx context.Context, s *edustack.Stack) {
	stack = s
	fmt.Println(motd)

	p := prompt.New(
		executor(ctx),
		completer,
		prompt.OptionPrefix("> "),
		prompt.OptionSetExitCheckerOnInput(exitChecker),
	)
	p.Run()
}
