package config

import (
	"flag"
	"os"
	"strings"
)

// envBindings maps each environment variable suffix to its flag names.
// Aliases share one variable; the first name is the one set.
var envBindings = []struct {
	key   string
	flags []string
}{
	{"N", []string{"n"}},
	{"ALGO", []string{"algo"}},
	{"TIMEOUT", []string{"timeout"}},
	{"CACHE_CAPACITY", []string{"cache-capacity"}},
	{"PORT", []string{"port"}},
	{"EXPORT", []string{"export"}},
	{"LOG_LEVEL", []string{"log-level"}},
	{"SERVER", []string{"server"}},
	{"JSON", []string{"json"}},
	{"DETAILS", []string{"details", "d"}},
	{"QUIET", []string{"quiet", "q"}},
	{"INTERACTIVE", []string{"interactive"}},
	{"NO_COLOR", []string{"no-color"}},
}

// applyEnvOverrides sets every flag absent from the command line from its
// FIBTRIO_* variable, through the flag's own parser. Values the parser
// rejects are ignored.
func applyEnvOverrides(fs *flag.FlagSet) {
	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	for _, b := range envBindings {
		if anyGiven(given, b.flags) {
			continue
		}
		val, ok := os.LookupEnv(EnvPrefix + b.key)
		if !ok || val == "" {
			continue
		}
		f := fs.Lookup(b.flags[0])
		if f == nil {
			continue
		}
		if isBoolFlag(f) {
			val = normalizeBool(val)
		}
		// flag's numeric parsers store zero on failure.
		prev := f.Value.String()
		if err := fs.Set(f.Name, val); err != nil {
			_ = f.Value.Set(prev)
		}
	}
}

func anyGiven(given map[string]bool, names []string) bool {
	for _, name := range names {
		if given[name] {
			return true
		}
	}
	return false
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// normalizeBool adds yes/no to the spellings strconv.ParseBool accepts.
func normalizeBool(val string) string {
	switch strings.ToLower(val) {
	case "yes", "y", "on":
		return "true"
	case "no", "n", "off":
		return "false"
	}
	return val
}
