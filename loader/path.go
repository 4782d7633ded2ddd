package loader

import (
	"os"
	"strings"

	"github.com/ardnew/mung"
)

// SearchPath returns dirs followed by the entries of the list in the
// environment variable env, keeping only existing directories.
func SearchPath(env string, dirs ...string) []string {
	joined := mung.Make(
		mung.WithSubjectItems(os.Getenv(env)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	var out []string

	seen := make(map[string]struct{})

	for _, dir := range strings.Split(joined, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}

		if _, ok := seen[dir]; ok {
			continue
		}

		seen[dir] = struct{}{}
		out = append(out, dir)
	}

	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
