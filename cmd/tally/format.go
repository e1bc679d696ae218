package main

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tally/internal/config"
)

// formatter renders numbers and labels for the configured display locale.
type formatter struct {
	printer *message.Printer
	title   cases.Caser
}

func newFormatter(cfg *config.Config) formatter {
	tag := language.AmericanEnglish
	if cfg != nil {
		if parsed, err := language.Parse(cfg.Display.Locale); err == nil {
			tag = parsed
		}
	}
	return formatter{
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
	}
}

func (f formatter) count(n int) string {
	return f.printer.Sprintf("%d", n)
}

func (f formatter) percent(n int) string {
	return f.printer.Sprintf("%d%%", n)
}

// label turns a snake_case identifier into title case words.
func (f formatter) label(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '_' {
			out[i] = ' '
		}
	}
	return f.title.String(string(out))
}
