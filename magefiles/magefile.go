//go:build mage

// Package main contains Mage build targets for pdfbatch developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a local run expects.
var projectDirs = []string{
	"input",
	"out",
	".secrets",
}

// Init creates the working directories for a local run.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "pdfbatch"
	cmdPkg  = "./cmd/pdfbatch"
)

// Build compiles the CLI binary into bin/, stamping the version from
// PDFBATCH_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version := os.Getenv("PDFBATCH_VERSION")
	if version == "" {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Parse builds the CLI and parses input/ into out/.
func Parse() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "parse", "--file_path", "input", "--out_root", "out")
}

// Clean removes build output and parse artifacts.
func Clean() error {
	for _, dir := range []string{binDir, "out"} {
		if err := sh.Rm(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return nil
}

// Stats prints non-blank Go lines (production and test) and the word count
// of the Markdown and YAML documents in the repository.
func Stats() error {
	var prod, test, words int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".go" && ext != ".md" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			test += nonBlankLines(data)
		case ext == ".go":
			prod += nonBlankLines(data)
		default:
			words += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// skipDirs are not counted by Stats.
var skipDirs = map[string]bool{binDir: true, "out": true, "_examples": true, ".git": true}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
