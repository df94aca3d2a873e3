package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestAgentCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"agent", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("agent --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "status") {
		t.Errorf("expected help to list 'status', got: %s", out)
	}
	if !strings.Contains(out, "list") {
		t.Errorf("expected help to list 'list', got: %s", out)
	}
}

func TestAgentStatusCmd_RequiresTenant(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"agent", "status", "ag-1", "away"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected missing --tenant error")
	}
}

func TestAgentListCmd_RequiresTenant(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"agent", "list"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected missing --tenant error")
	}
}
