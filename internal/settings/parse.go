package settings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"jedisim/internal/services"
)

// ParseFile reads the settings file at path.
func ParseFile(path string) (Namespace, error) {
	f, err := os.Open(path)
	if err != nil {
		return Namespace{}, services.Wrap(services.ErrNotFound, "settings", "open", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads key=value lines from r. Lines starting with '#' and blank lines
// are skipped. A quoted value keeps everything between the first pair of
// double quotes; an unquoted value is its first whitespace-delimited token.
// When a key repeats, the last occurrence wins.
func Parse(r io.Reader) (Namespace, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		key, rest, ok := strings.Cut(line, "=")
		if !ok {
			return Namespace{}, services.Wrap(services.ErrConfigParse, "settings", "parse",
				fmt.Sprintf("line %d: missing '=' separator", lineNo), nil)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Namespace{}, services.Wrap(services.ErrConfigParse, "settings", "parse",
				fmt.Sprintf("line %d: empty key", lineNo), nil)
		}
		value, err := parseValue(rest)
		if err != nil {
			return Namespace{}, services.Wrap(services.ErrConfigParse, "settings", "parse",
				fmt.Sprintf("line %d: %s", lineNo, err), nil)
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return Namespace{}, services.Wrap(services.ErrConfigParse, "settings", "read", "", err)
	}
	return Namespace{values: values}, nil
}

func parseValue(raw string) (string, error) {
	if quoted, ok := strings.CutPrefix(raw, `"`); ok {
		value, _, closed := strings.Cut(quoted, `"`)
		if !closed {
			return "", fmt.Errorf("unterminated quoted value")
		}
		return value, nil
	}
	if end := strings.IndexFunc(raw, unicode.IsSpace); end >= 0 {
		return raw[:end], nil
	}
	return raw, nil
}
