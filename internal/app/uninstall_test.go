package app

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestUninstallCommand(t *testing.T) {
	if uninstallCmd == nil {
		t.Fatal("uninstallCmd is nil")
	}

	if uninstallCmd.Use != "uninstall" {
		t.Errorf("uninstallCmd.Use = %q, want %q", uninstallCmd.Use, "uninstall")
	}

	if uninstallCmd.Short == "" {
		t.Error("uninstallCmd.Short is empty")
	}

	if uninstallCmd.RunE == nil {
		t.Error("uninstallCmd.RunE is nil")
	}
}

func TestUninstallFlags(t *testing.T) {
	tests := []struct {
		name     string
		flagName string
	}{
		{"dry-run flag", "dry-run"},
		{"force flag", "force"},
		{"no-backup flag", "no-backup"},
		{"include-generated flag", "include-generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := uninstallCmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Errorf("flag %q not found", tt.flagName)
				return
			}

			if flag.DefValue != "false" {
				t.Errorf("flag %q default = %q, want %q", tt.flagName, flag.DefValue, "false")
			}
		})
	}

	backupDir := uninstallCmd.Flags().Lookup("backup-dir")
	if backupDir == nil {
		t.Fatal("flag \"backup-dir\" not found")
	}
	if backupDir.DefValue != "" {
		t.Errorf("flag \"backup-dir\" default = %q, want empty", backupDir.DefValue)
	}
}

func TestUninstallHelpExplainsSafetyModel(t *testing.T) {
	longDesc := uninstallCmd.Long
	if !strings.Contains(longDesc, "preserve") {
		t.Error("uninstallCmd.Long should mention the preserve rules")
	}
	if !strings.Contains(longDesc, "backup") {
		t.Error("uninstallCmd.Long should explain the backup snapshot")
	}
	if !strings.Contains(longDesc, "--no-backup") {
		t.Error("uninstallCmd.Long should document --no-backup")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"accepts y", "y\n", true},
		{"accepts yes", "yes\n", true},
		{"accepts uppercase Y", "Y\n", true},
		{"rejects n", "n\n", false},
		{"rejects empty", "\n", false},
		{"rejects garbage", "maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldStdin := os.Stdin
			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("failed to create pipe: %v", err)
			}
			os.Stdin = r
			defer func() { os.Stdin = oldStdin }()

			_, _ = io.WriteString(w, tt.input)
			w.Close()

			if got := confirm("proceed?"); got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfirmDangerousRequiresLiteralYes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"rejects y", "y\n", false},
		{"accepts yes", "yes\n", true},
		{"rejects YES", "YES\n", false},
		{"rejects empty", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldStdin := os.Stdin
			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("failed to create pipe: %v", err)
			}
			os.Stdin = r
			defer func() { os.Stdin = oldStdin }()

			_, _ = io.WriteString(w, tt.input)
			w.Close()

			if got := confirmDangerous("danger"); got != tt.want {
				t.Errorf("confirmDangerous(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
