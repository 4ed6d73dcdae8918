package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/store"
)

// absRoot normalizes a project root the same way config.Load does, so
// history lookups key on the same string the engine recorded.
func absRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return abs, nil
}

// confirm prompts with a y/N question and returns the answer.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// confirmDangerous requires the literal string "yes", used when the
// operation cannot be undone (no backup).
func confirmDangerous(prompt string) bool {
	fmt.Printf("%s\nType \"yes\" to confirm (or press Enter to cancel): ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

// openStore opens the run-history database. Failures are non-fatal; the
// engine works without history, it just is not recorded.
func openStore() *store.Store {
	path, err := dbPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return nil
	}

	st, err := store.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return nil
	}
	return st
}

// printRecoverHint tells the operator exactly how to restore.
func printRecoverHint(backupLocation string) {
	if backupLocation == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "\nBackup snapshot: %s\n", backupLocation)
	fmt.Fprintf(os.Stderr, "Recover with:    overlayctl recover --from-backup %s\n", backupLocation)
}
