// Package archive discovers and extracts the zip bundles the datasets are
// published in. Extraction is zip-slip safe and idempotent: members that were
// already extracted are skipped unless overwrite is requested.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverZips finds input bundles under rawDir. Exact expectedNames win when
// any of them exist; otherwise any *.zip whose name contains one of the
// includeTerms (case-insensitive) is returned, sorted.
func DiscoverZips(rawDir string, expectedNames, includeTerms []string) ([]string, error) {
	var expected []string
	for _, name := range expectedNames {
		path := filepath.Join(rawDir, name)
		if _, err := os.Stat(path); err == nil {
			expected = append(expected, path)
		}
	}
	if len(expected) > 0 {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(rawDir, "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("glob zip files in %s: %w", rawDir, err)
	}
	sort.Strings(matches)

	var out []string
	for _, path := range matches {
		lower := strings.ToLower(filepath.Base(path))
		for _, term := range includeTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				out = append(out, path)
				break
			}
		}
	}
	return out, nil
}

// Extract unpacks zipPath into targetDir and returns the sorted, deduplicated
// list of extracted file paths. Directory members are skipped. Members whose
// resolved destination escapes targetDir abort the extraction.
func Extract(zipPath, targetDir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", targetDir, err)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", zipPath, err)
	}
	defer reader.Close()

	seen := map[string]struct{}{}
	for _, member := range reader.File {
		if member.FileInfo().IsDir() {
			continue
		}

		dest := filepath.Join(targetDir, filepath.FromSlash(member.Name))
		if !withinDir(targetDir, dest) {
			return nil, fmt.Errorf("unsafe zip member path detected in %s: %s", filepath.Base(zipPath), member.Name)
		}

		if _, err := os.Stat(dest); err == nil && !overwrite {
			seen[dest] = struct{}{}
			continue
		}

		if err := extractMember(member, dest); err != nil {
			return nil, err
		}
		seen[dest] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func extractMember(member *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("open zip member %s: %w", member.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %s: %w", member.Name, err)
	}
	return nil
}

// withinDir reports whether path stays inside dir after cleaning.
func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// TabularCandidates filters extracted paths down to the file types the
// tabular reader understands, sorted.
func TabularCandidates(paths []string) []string {
	var out []string
	for _, path := range paths {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".csv", ".tsv":
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
