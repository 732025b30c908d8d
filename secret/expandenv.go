package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands ${VAR} references in s.
//
// Semantics:
//   - Only the braced form is expanded; a bare `$` is kept, so passwords
//     containing dollar signs pass through untouched.
//   - A ${VAR} whose VAR is unset is an error naming every missing variable.
//   - `$${` emits a literal `${` (escape hatch).
func ExpandEnvStrict(s string) (string, error) {
	const escaped = "\x00DATASENTRY_ESCAPED_BRACE\x00"
	s = strings.ReplaceAll(s, "$${", escaped)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
	return strings.ReplaceAll(s, escaped, "${"), nil
}
