// Package wordlist loads practice content from files or the built-in code sets.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed builtin/*.txt
var builtinFS embed.FS

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

// Load resolves content for lang: a word list in dir wins over the built-in set.
// The returned source is the file path or "builtin:<lang>".
func Load(dir, lang string) ([]string, string, error) {
	path := filepath.Join(dir, lang+".txt")
	words, err := LoadWords(path)
	if err == nil {
		return filterWords(words, FilterForLang(lang)), path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, path, err
	}
	builtin, ok, berr := Builtin(lang)
	if berr != nil {
		return nil, "builtin:" + lang, berr
	}
	if !ok {
		return nil, path, fmt.Errorf("no word list for %q: %w", lang, err)
	}
	return builtin, "builtin:" + lang, nil
}

// Builtin returns the embedded content for lang.
func Builtin(lang string) ([]string, bool, error) {
	file, err := builtinFS.Open("builtin/" + strings.ToLower(lang) + ".txt")
	if err != nil {
		return nil, false, nil
	}
	defer func() {
		_ = file.Close()
	}()
	words, err := readWords(file)
	if err != nil {
		return nil, true, err
	}
	return words, true, nil
}

// BuiltinLanguages lists the embedded content languages.
func BuiltinLanguages() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, entry := range entries {
		langs = append(langs, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(langs)
	return langs
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

func filterWords(words []string, keep FilterFunc) []string {
	out := words[:0:0]
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return words
	}
	return out
}
