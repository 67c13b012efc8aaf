package zipfile

import (
	"fmt"
	"strings"
)

// ValidateEntryName rejects archive entry names that could escape an
// extraction target directory. It returns an error wrapping
// [ErrInsecureName] for:
//
//   - names beginning with "/" (absolute paths)
//   - any ".." path segment, i.e. ".." at the start of the name or right
//     after a "/", followed by the end of the name, "/", or "\"
//   - any backslash, which a different OS layer could reinterpret as a
//     path separator
//
// Names like "a..b" contain no traversal and are accepted. The check is
// purely lexical; it never touches the filesystem.
func ValidateEntryName(name string) error {
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: absolute path in entry %q", ErrInsecureName, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' {
			return fmt.Errorf("%w: backslash in entry %q", ErrInsecureName, name)
		}
		if name[i] != '.' || i+1 >= len(name) || name[i+1] != '.' {
			continue
		}
		atSegmentStart := i == 0 || name[i-1] == '/'
		if !atSegmentStart {
			continue
		}
		rest := name[i+2:]
		if rest == "" || rest[0] == '/' || rest[0] == '\\' {
			return fmt.Errorf("%w: path traversal in entry %q", ErrInsecureName, name)
		}
	}
	return nil
}
