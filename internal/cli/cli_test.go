package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/parsers"
)

const novel = `---
title: Salt and Iron
author: R. Hale
---

# Chapter 1: The Forge

Sparks flew from the anvil all through the night.

# Chapter 2: The Sea

The ship left harbour on the morning tide.
`

func writeManuscript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportCommand_ParseFlags(t *testing.T) {
	cmd := NewImportCommand()
	err := cmd.ParseFlags([]string{"-file", "book.md", "-slug", "salt", "-publication-id", "4", "-publish", "-access", "member", "-replace", "-dry-run"})
	require.NoError(t, err)

	assert.Equal(t, "book.md", cmd.File)
	assert.Equal(t, "salt", cmd.Slug)
	assert.Equal(t, uint(4), cmd.PublicationID)
	assert.True(t, cmd.Publish)
	assert.True(t, cmd.Replace)
	assert.True(t, cmd.DryRun)

	importCmd, err := cmd.command()
	require.NoError(t, err)
	assert.Equal(t, "cli", importCmd.Source)
	assert.EqualValues(t, "member", importCmd.AccessLevel)

	assert.Error(t, NewImportCommand().ParseFlags([]string{}))
}

func TestImportCommand_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	admin := NewCreateAdminCommand()
	admin.Out = &bytes.Buffer{}
	require.NoError(t, admin.ParseFlags([]string{"-username", "editor", "-db", dbPath}))
	require.NoError(t, admin.Run())

	var out bytes.Buffer
	cmd := NewImportCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-file", writeManuscript(t, "salt.md", novel), "-db", dbPath, "-audit-dir", ""}))
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), "Publication: salt-and-iron (new")
	assert.Contains(t, out.String(), "Created (2):")
	assert.Contains(t, out.String(), "Done: 2 created, 0 updated, 0 skipped")

	t.Run("json output on re-import", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewImportCommand()
		cmd.Out = &out
		require.NoError(t, cmd.ParseFlags([]string{"-file", writeManuscript(t, "salt.md", novel), "-db", dbPath, "-audit-dir", "", "-json"}))
		require.NoError(t, cmd.Run())

		var result importers.ImportResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Len(t, result.ChaptersSkipped, 2)
	})
}

func TestImportCommand_RunWithoutOwner(t *testing.T) {
	var out bytes.Buffer
	cmd := NewImportCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-file", writeManuscript(t, "salt.md", novel), "-db", filepath.Join(t.TempDir(), "empty.db"), "-audit-dir", ""}))

	err := cmd.Run()
	assert.ErrorIs(t, err, ErrImportFailed)
	assert.Contains(t, out.String(), "=== Warnings/Errors")
	assert.Contains(t, out.String(), "Import failed; no chapters were written.")
}

func TestImportCommand_ParseError(t *testing.T) {
	cmd := NewImportCommand()
	cmd.Out = &bytes.Buffer{}
	require.NoError(t, cmd.ParseFlags([]string{"-file", writeManuscript(t, "empty.txt", ""), "-db", filepath.Join(t.TempDir(), "x.db"), "-audit-dir", ""}))

	err := cmd.Run()
	assert.ErrorIs(t, err, parsers.ErrEmptyFile)
}

func TestPrintImportResult(t *testing.T) {
	var out bytes.Buffer
	PrintImportResult(&out, importers.ImportResult{
		Success:         true,
		DryRun:          true,
		FreshImport:     false,
		PublicationRef:  "3",
		PublicationSlug: "salt",
		ChaptersCreated: []string{"Chapter 3: The Return"},
		ChaptersUpdated: []string{},
		ChaptersSkipped: []string{"Chapter 1: The Forge"},
		Errors:          []string{"chapter 2 already exists and was left unchanged"},
	})

	text := out.String()
	assert.Contains(t, text, "Import Plan (dry run)")
	assert.Contains(t, text, "Publication: salt (existing, ref 3)")
	assert.Contains(t, text, "  + Chapter 3: The Return")
	assert.Contains(t, text, "  = Chapter 1: The Forge")
	assert.Contains(t, text, "=== Warnings/Errors (1) ===")
}

func TestPrintImportResult_FailedFreshImport(t *testing.T) {
	var out bytes.Buffer
	PrintImportResult(&out, importers.ImportResult{
		Success:         false,
		FreshImport:     true,
		PublicationRef:  "12",
		PublicationSlug: "salt",
		ChaptersCreated: []string{},
		ChaptersUpdated: []string{},
		Errors: []string{
			`publication "salt" (id 12) was created but has no chapters; re-run the import to fill it`,
			`failed to save chapters of "salt": disk full`,
		},
	})

	text := out.String()
	assert.Contains(t, text, "=== Warnings/Errors (2) ===")
	assert.Contains(t, text, `publication "salt" (id 12) was created`)
	assert.Contains(t, text, "Import failed; no chapters were written.")
	assert.NotContains(t, text, "nothing was written")
}

func TestParseCommand_Run(t *testing.T) {
	var out bytes.Buffer
	cmd := NewParseCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-file", writeManuscript(t, "salt.md", novel), "-body"}))
	require.NoError(t, cmd.Run())

	text := out.String()
	assert.Contains(t, text, "Title:  Salt and Iron")
	assert.Contains(t, text, "Author: R. Hale")
	assert.Contains(t, text, "=== Chapters (2) ===")
	assert.Contains(t, text, "The Forge")
	assert.Contains(t, text, "Sparks flew")
}

func TestCreateAdminCommand_Existing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "admin.db")
	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		cmd := NewCreateAdminCommand()
		cmd.Out = &out
		require.NoError(t, cmd.ParseFlags([]string{"-username", "editor", "-db", dbPath}))
		require.NoError(t, cmd.Run())
		if i == 1 {
			assert.Contains(t, out.String(), "already exists")
		}
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b", excerpt("a\nb", 10))
	assert.Equal(t, "abc...", excerpt("abcdef", 3))
}
