package executor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// placeholderPattern matches ${name}. Names may contain dots and dashes so
// definitions can use step-scoped names such as ${storage.key}.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// UnresolvedVariableError is returned when a placeholder has no binding.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable ${%s}", e.Name)
}

// Placeholders returns the distinct placeholder names used in s, sorted.
func Placeholders(s string) []string {
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand substitutes every placeholder in s using bindings.
func Expand(s string, bindings map[string]string) (string, error) {
	var unresolved string
	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		value, ok := bindings[name]
		if !ok {
			if unresolved == "" {
				unresolved = name
			}
			return match
		}
		return value
	})
	if unresolved != "" {
		return "", &UnresolvedVariableError{Name: unresolved}
	}
	return out, nil
}

// ExpandKnown substitutes the placeholders that have a binding and leaves
// the rest as written. Used to preview commands before a run.
func ExpandKnown(s string, bindings map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		if value, ok := bindings[match[2:len(match)-1]]; ok {
			return value
		}
		return match
	})
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidName reports whether name can be referenced as ${name}.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// hashMark stands in for '#' so the lexer cannot read it as a comment.
const hashMark = "\x00"

// Split breaks a command template into argv using shell-word rules.
// Placeholders are left untouched. A word starting with an unquoted '#'
// would silently drop the rest of the line, so it is rejected.
func Split(command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("command is empty")
	}

	if strings.Contains(command, "#") {
		literal, err := shlex.Split(strings.ReplaceAll(command, "#", hashMark))
		if err != nil {
			return nil, fmt.Errorf("failed to parse command: %w", err)
		}
		if !sameWords(args, literal) {
			return nil, fmt.Errorf("command has an unquoted '#' that would end it early; quote the word")
		}
	}
	return args, nil
}

func sameWords(args, literal []string) bool {
	if len(args) != len(literal) {
		return false
	}
	for i := range args {
		if args[i] != strings.ReplaceAll(literal[i], hashMark, "#") {
			return false
		}
	}
	return true
}

// Resolve turns an invocation into a runnable command.
func Resolve(inv Invocation, bindings map[string]string) (Command, error) {
	words, err := Split(inv.Command)
	if err != nil {
		return Command{}, err
	}

	args := make([]string, len(words))
	for i, w := range words {
		if args[i], err = Expand(w, bindings); err != nil {
			return Command{}, err
		}
	}

	keys := make([]string, 0, len(inv.Env))
	for k := range inv.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := Expand(inv.Env[k], bindings)
		if err != nil {
			return Command{}, err
		}
		env = append(env, k+"="+v)
	}

	return Command{Args: args, Env: env, Timeout: inv.Timeout, Dir: inv.Dir}, nil
}

// Mask replaces every occurrence of the given secrets in s with "***".
func Mask(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "***")
	}
	return s
}
