package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mgomes/bci/bci"
)

const sourceExt = ".rb"

func fmtCommand(args []string) error {
	flags := newFlagSet("fmt")
	write := flags.Bool("w", false, "write result to source files instead of stdout")
	check := flags.Bool("check", false, "fail if any source file needs formatting")
	if err := flags.Parse(args); err != nil {
		return err
	}

	targets := flags.Args()
	if len(targets) == 0 {
		return errors.New("bci fmt: path required")
	}

	files, err := collectSourceFiles(targets)
	if err != nil {
		return err
	}

	pending := 0
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		original := string(raw)
		// Refuse to touch files the parser rejects.
		if _, err := bci.Parse(original); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		formatted := formatSource(original)
		if formatted == original {
			if !*write && !*check {
				fmt.Print(formatted)
			}
			continue
		}
		pending++

		switch {
		case *write:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case !*check:
			fmt.Print(formatted)
		}
	}

	if *check && pending > 0 {
		return fmt.Errorf("bci fmt: %d file(s) need formatting", pending)
	}
	return nil
}

// collectSourceFiles expands directories into the .rb files beneath them.
// The result is absolute, sorted and free of duplicates.
func collectSourceFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if filepath.Ext(path) != sourceExt {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			add(target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !entry.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatSource normalises line endings, expands leading tabs to two spaces,
// strips trailing blanks, collapses runs of blank lines and ends the file
// with exactly one newline.
func formatSource(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		indent := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent > 0 {
			line = strings.Repeat("  ", indent) + line[indent:]
		}
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	joined := strings.TrimLeft(strings.Join(out, "\n"), "\n")
	joined = strings.TrimRight(joined, "\n")
	return joined + "\n"
}
