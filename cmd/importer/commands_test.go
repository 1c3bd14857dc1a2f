package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/yourorg/rips-import/internal/types"
)

func TestSettingsFlags(t *testing.T) {
	var sf settingsFlags
	cmd := &cobra.Command{Use: "x"}
	sf.bind(cmd)
	if err := cmd.Flags().Parse([]string{"--by-phone", "--create-new", "--match-last=false"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err := sf.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	want := types.DefaultSettings()
	want.SearchSettings.ByPhone = true
	want.OtherSettings.CreateNew = true
	want.MatchSettings.MatchLast = false
	if s != want {
		t.Fatalf("settings=%+v; want %+v", s, want)
	}

	sf = settingsFlags{}
	cmd = &cobra.Command{Use: "x"}
	sf.bind(cmd)
	if err := cmd.Flags().Parse([]string{"--by-phone", `--settings={"searchSettings":{"byStarsNumber":true}}`}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err = sf.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if !s.SearchSettings.ByStarsNumber || s.SearchSettings.ByPhone || s.MatchSettings.MatchFirst {
		t.Fatalf("json settings should replace the flags: %+v", s)
	}

	sf.raw = "{"
	if _, err := sf.settings(); err == nil {
		t.Fatalf("expected error for bad JSON")
	}
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.csv")
	body := "first name,last name\nAnna,Bell\nCarl\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := parseCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	for _, want := range []string{"columns: [FIRST NAME LAST NAME]", "records: 1", "ROW #3 HAS DIFFERENT # OF COLUMNS THAN HEADER"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q missing %q", got, want)
		}
	}
}
