package main

import (
	"testing"
)

func TestCurrentFilterBuildsFromPersistentFlags(t *testing.T) {
	flags.filterSource = "/docs/"
	flags.filterType = "md"
	defer func() { flags = globalFlags{} }()

	f := currentFilter()
	if f.SourcePrefix != "/docs/" || f.FileType != "md" {
		t.Errorf("got %+v, want SourcePrefix=/docs/ FileType=md", f)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "query", "research", "eval"} {
		if !names[want] {
			t.Errorf("expected subcommand %q to be registered", want)
		}
	}
}

func TestSecondsToDuration(t *testing.T) {
	if got := secondsToDuration(300); got.Seconds() != 300 {
		t.Errorf("got %v, want 300s", got)
	}
}
