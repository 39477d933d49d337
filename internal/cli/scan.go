package cli

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// scanOptionFiles finds the positional arguments before the property flags
// are known. A token following an unknown flag may be that flag's value or,
// for a bare boolean property, an option file; it is kept only if it names
// an existing file or a remote URI. The strict second parse settles it.
func scanOptionFiles(fixed *pflag.FlagSet, args []string) []string {
	var files []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(files, args[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			files = append(files, arg)
		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			if hasValue {
				continue
			}
			if f := fixed.Lookup(name); f != nil {
				if takesValue(f) {
					i++
				}
				continue
			}
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				if looksLikeOptionFile(args[i+1]) {
					files = append(files, args[i+1])
				}
				i++
			}
		default:
			if shorthandNeedsNext(fixed, arg[1:]) {
				i++
			}
		}
	}
	return files
}

// shorthandNeedsNext walks a shorthand group such as "in" in "-in 5" the
// way pflag does: the first letter that takes a value consumes the rest of
// the group, or the next argument when it is the last letter.
func shorthandNeedsNext(fixed *pflag.FlagSet, group string) bool {
	for j := 0; j < len(group); j++ {
		f := fixed.ShorthandLookup(group[j : j+1])
		if f == nil || !takesValue(f) {
			continue
		}
		return j == len(group)-1
	}
	return false
}

func takesValue(f *pflag.Flag) bool {
	return f.NoOptDefVal == ""
}

func looksLikeOptionFile(arg string) bool {
	if strings.Contains(arg, "://") {
		return true
	}
	_, err := os.Stat(arg)
	return err == nil
}
