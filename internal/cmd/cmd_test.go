package cmd

import "testing"

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "codeauditor" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "codeauditor")
	}

	expected := []string{"audit", "sessions", "health", "watch", "config"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestSessionsCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{"list", "show", "analyze", "delete", "cleanup", "logs"}
	cmdMap := make(map[string]bool)
	for _, c := range sessionsCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("expected sessions subcommand %q not found", name)
		}
	}
}
