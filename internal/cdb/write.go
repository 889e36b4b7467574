// Package cdb serializes reconstructed invocations into compilation and link
// database files consumable by downstream tooling (clangd, analyzers, custom
// scripts).
package cdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/arech/yacce/internal/log"
	"github.com/arech/yacce/internal/strace"
)

// Database file names. Partitioned subsets keep the same base names in their
// own directories.
const (
	CompileDBName = "compile_commands.json"
	LinkDBName    = "link_commands.json"
)

// Entry is one database record. Field order matches the emitted JSON; link
// entries simply omit "file".
type Entry struct {
	Directory string      `json:"directory"`
	File      string      `json:"file,omitempty"`
	Arguments []string    `json:"arguments"`
	Duration  json.Number `json:"duration_s,omitempty"`
	Output    string      `json:"output"`
}

// CompileEntries converts compile commands into database entries. cwd becomes
// the "directory" field used to resolve relative paths.
func CompileEntries(cwd string, cmds []strace.CompileCommand, saveDuration bool) []Entry {
	entries := make([]Entry, len(cmds))
	for i, c := range cmds {
		entries[i] = Entry{
			Directory: cwd,
			File:      c.File,
			Arguments: c.Arguments,
			Output:    c.Output,
		}
		if saveDuration {
			entries[i].Duration = formatDuration(c.Duration)
		}
	}
	return entries
}

// LinkEntries converts link commands into database entries.
func LinkEntries(cwd string, cmds []strace.LinkCommand, saveDuration bool) []Entry {
	entries := make([]Entry, len(cmds))
	for i, c := range cmds {
		entries[i] = Entry{
			Directory: cwd,
			Arguments: c.Arguments,
			Output:    c.Output,
		}
		if saveDuration {
			entries[i].Duration = formatDuration(c.Duration)
		}
	}
	return entries
}

// WriteCompile writes a compile_commands.json into destDir and returns the
// written path. An empty command list writes nothing.
func WriteCompile(destDir, cwd string, cmds []strace.CompileCommand, saveDuration bool) (string, error) {
	return write(filepath.Join(destDir, CompileDBName), CompileEntries(cwd, cmds, saveDuration))
}

// WriteLink writes a link_commands.json into destDir and returns the written
// path. An empty command list writes nothing.
func WriteLink(destDir, cwd string, cmds []strace.LinkCommand, saveDuration bool) (string, error) {
	return write(filepath.Join(destDir, LinkDBName), LinkEntries(cwd, cmds, saveDuration))
}

func write(path string, entries []Entry) (string, error) {
	if len(entries) == 0 {
		log.Debug("no commands to write, skipping", "path", path)
		return "", nil
	}

	data, err := Marshal(entries)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info("written command database", "commands", len(entries), "path", path)
	return path, nil
}

// Marshal renders entries as an indented JSON array with a trailing newline.
func Marshal(entries []Entry) ([]byte, error) {
	data, err := json.MarshalIndent(entries, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding database: %w", err)
	}
	return append(data, '\n'), nil
}

// formatDuration renders seconds at fixed microsecond resolution, so the
// emitted numbers are stable across runs of identical traces.
func formatDuration(seconds float64) json.Number {
	return json.Number(strconv.FormatFloat(seconds, 'f', 6, 64))
}
