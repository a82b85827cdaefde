package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TranscriptExt is the file extension recognised as a conversation transcript
// when a directory is given instead of a file.
const TranscriptExt = ".txt"

// ExpandTranscripts resolves files, directories and glob patterns into a
// sorted, de-duplicated list of transcript paths. Directories contribute their
// top-level *.txt files; explicit files are accepted regardless of extension.
func ExpandTranscripts(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no transcript paths provided")
	}

	files := make([]string, 0, len(patterns))
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, pattern := range patterns {
		if hasGlobMeta(pattern) {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no matches for pattern %q", pattern)
			}
			for _, match := range matches {
				add(match)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(pattern)
			continue
		}

		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, err
		}
		found := false
		for _, e := range entries {
			if e.IsDir() || !IsTranscript(e.Name()) {
				continue
			}
			add(filepath.Join(pattern, e.Name()))
			found = true
		}
		if !found {
			return nil, fmt.Errorf("no %s transcripts in directory %q", TranscriptExt, pattern)
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsTranscript reports whether name looks like a transcript file.
func IsTranscript(name string) bool {
	return strings.EqualFold(filepath.Ext(name), TranscriptExt)
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
