package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"jan.qfx", "feb.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	files, err := collectFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "jan.qfx"), filepath.Join(dir, "feb.qfx")}, files)

	files, err = collectFiles([]string{filepath.Join(dir, "notes.txt"), filepath.Join(dir, "missing.ofx")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)

	_, err = collectFiles([]string{"[invalid"})
	assert.Error(t, err)
}

func TestLinkLabel(t *testing.T) {
	assert.Equal(t, "auto-pay → Entertainment", linkLabel(model.Transaction{Type: model.TransactionAutoPay, Category: "Entertainment"}))
	assert.Equal(t, "→ Storage", linkLabel(model.Transaction{Type: model.TransactionManual, Category: "Storage"}))
}
