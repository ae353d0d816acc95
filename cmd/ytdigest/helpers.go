package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// expandPath expands ~ to home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// readURL prompts on out and reads one line from in.
func readURL(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter YouTube URL to process: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read url: %w", err)
	}
	url := strings.TrimSpace(line)
	if url == "" {
		return "", errors.New("no youtube url provided")
	}
	return url, nil
}
