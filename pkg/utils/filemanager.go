// =============================================================================
// Pipeline Dashboard - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for exports, including:
//   - Output directory management
//   - Output file naming with uuid/timestamp placeholders
//   - Warning log generation next to an export
//   - Retention cleanup of old exports
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for exports.
type FileManager struct {
	// outputDir is where exports and logs are written.
	outputDir string
}

// NewFileManager creates a new FileManager for the output directory.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{outputDir: outputDir}
}

// OutputDir returns the output directory.
func (fm *FileManager) OutputDir() string {
	return fm.outputDir
}

// EnsureDirectories creates the output directory if it doesn't exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	if fm.outputDir == "" {
		return fmt.Errorf("output directory is not set")
	}
	if err := os.MkdirAll(fm.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.outputDir, err)
	}
	return nil
}

// OutputPath returns a new, unique path inside the output directory.
func (fm *FileManager) OutputPath(format string, params map[string]string, ext string) string {
	return filepath.Join(fm.outputDir, GenerateOutputFileName(format, params, ext))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {<key>}     - Any key of params
//   - params: A map of placeholder values.
//   - ext: The required extension, e.g. ".xlsx".
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{source}_{timestamp}_{uuid}"
//   params: {"source": "csv"}
//   output: "csv_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xlsx"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// WARNING LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single log entry.
type ErrorLogEntry struct {
	Severity string
	Row      int
	Field    string
	Value    string
	Message  string
}

// WriteErrorLog writes entries to a text log.
//
// PARAMETERS:
//   - entries: The entries to write.
//   - path: The log file path.
//
// RETURNS:
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "# Data quality log - %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Entries: %d\n\n", len(entries))

	for _, e := range entries {
		location := "sheet"
		if e.Row > 0 {
			location = fmt.Sprintf("row %d", e.Row)
		}
		fmt.Fprintf(w, "[%s] %s, field %q: %s", strings.ToUpper(e.Severity), location, e.Field, e.Message)
		if e.Value != "" {
			fmt.Fprintf(w, " (value: %q)", e.Value)
		}
		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldFiles removes files with the given extension older than maxAge
// from dir (not recursive).
//
// RETURNS:
//   - The removed paths, sorted.
//   - An error if cleaning fails.
func CleanOldFiles(dir, ext string, maxAge time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, err
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			removed = append(removed, path)
		}
	}

	sort.Strings(removed)
	return removed, nil
}
