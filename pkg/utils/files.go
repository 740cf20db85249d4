// =============================================================================
// Budget Ledger - File Manager Utility
// =============================================================================
//
// This module provides the file handling shared by the commands:
//   - Output directory management
//   - Output file naming
//   - Writing generated workbooks and decks
//   - Archiving a ledger before it is overwritten
//
// ARCHIVAL STRATEGY:
//   - When a merge writes over the ledger it read, the previous copy is
//     copied to the archive directory first
//   - Archive copies get a timestamp suffix so repeated merges never collide
//   - Nothing is archived when no archive directory is configured
//
// =============================================================================

package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles generated files.
type FileManager struct {
	// OutputDir is the directory where generated files are placed.
	OutputDir string

	// ArchiveDir receives copies of ledgers before they are overwritten.
	// Empty disables archiving.
	ArchiveDir string

	// Now stamps names; nil means time.Now.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now != nil {
		return fm.Now()
	}
	return time.Now()
}

// =============================================================================
// WRITING
// =============================================================================

// OutputPath resolves the path for a generated file. An explicit path is
// returned unchanged; otherwise a name is generated from format inside
// OutputDir.
func (fm *FileManager) OutputPath(explicit, format, ext string, params map[string]string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(fm.OutputDir, GenerateOutputFileName(format, ext, fm.now(), params))
}

// Write stores data at path. See WriteFrom.
func (fm *FileManager) Write(path string, data []byte) error {
	return fm.WriteFrom(path, bytes.NewReader(data))
}

// WriteFrom stores the output of src at path, creating parent directories.
// Output goes to a temporary file in the same directory first and is renamed
// into place, so a failed write never leaves a truncated ledger behind.
//
// PARAMETERS:
//   - path: destination file
//   - src: anything that can stream itself, e.g. a ledger document
//
// RETURNS:
//   - An error if the directory cannot be created or the write fails.
func (fm *FileManager) WriteFrom(path string, src io.WriterTo) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := src.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// Archive copies filePath into ArchiveDir.
//
// RETURNS:
//   - The path to the archived copy, or "" when archiving is disabled or the
//     file does not exist.
//   - An error if the copy fails.
func (fm *FileManager) Archive(filePath string) (string, error) {
	if fm.ArchiveDir == "" || !FileExists(filePath) {
		return "", nil
	}

	if err := os.MkdirAll(fm.ArchiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := fm.archivePath(filePath)
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// archivePath builds "<archive>/<name>_<timestamp><ext>".
func (fm *FileManager) archivePath(filePath string) string {
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(fm.ArchiveDir, fmt.Sprintf("%s_%s%s", stem, fm.now().Format("20060102_150405"), ext))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Date (YYYYMMDD)
//     any key of params, e.g. {section}
//   - ext: The extension to ensure, e.g. ".xlsx"
//   - now: The time used for {timestamp} and {date}
//   - params: A map of extra placeholder values.
//
// EXAMPLE:
//
//	format: "ledger_{section}_{timestamp}"
//	params: {"section": "2026-02-01"}
//	output: "ledger_2026-02-01_20260202_090000.xlsx"
func GenerateOutputFileName(format, ext string, now time.Time, params map[string]string) string {
	replacements := []string{
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements = append(replacements, "{uuid}", uuid.New().String())
	}
	for key, value := range params {
		replacements = append(replacements, "{"+key+"}", sanitize(value))
	}

	result := strings.NewReplacer(replacements...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// sanitize makes a placeholder value safe for a file name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#':
			return '-'
		case ' ':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SamePath reports whether a and b name the same file.
func SamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
