package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/agbru/fibtrio/internal/ui"
)

// usageGroups orders the flags in the help text. Flags missing here are
// listed under "Other".
var usageGroups = []struct {
	title string
	flags []string
}{
	{"Calculation", []string{"n", "algo", "timeout", "cache-capacity"}},
	{"Output", []string{"details", "d", "json", "quiet", "q", "no-color", "log-level"}},
	{"Modes", []string{"interactive", "server", "port", "export"}},
}

// setCustomUsage installs a themed, grouped usage message on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%sfibtrio%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Fibonacci numbers three ways: naive recursive, iterative and memoized.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n", t.Warning, t.Reset, fs.Name())

		listed := make(map[string]bool)
		for _, g := range usageGroups {
			var flags []*flag.Flag
			for _, name := range g.flags {
				if f := fs.Lookup(name); f != nil {
					flags = append(flags, f)
					listed[name] = true
				}
			}
			writeFlagGroup(out, t, g.title, flags)
		}

		var rest []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) {
			if !listed[f.Name] {
				rest = append(rest, f)
			}
		})
		writeFlagGroup(out, t, "Other", rest)

		fmt.Fprintf(out, "\n%sEnvironment:%s\n  Every flag can be set through %s<FLAG>, e.g. %sCACHE_CAPACITY=500.\n  Flags win over the environment.\n\n",
			t.Warning, t.Reset, EnvPrefix, EnvPrefix)
	}
}

func writeFlagGroup(out io.Writer, t ui.Theme, title string, flags []*flag.Flag) {
	if len(flags) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s%s:%s\n", t.Warning, title, t.Reset)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range flags {
		name, usage := flag.UnquoteUsage(f)
		sig := "-" + f.Name
		if name != "" {
			sig += " " + name
		}
		if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
			usage += fmt.Sprintf(" %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
		}
		fmt.Fprintf(tw, "  %s%s%s\t%s\n", t.Primary, sig, t.Reset, usage)
	}
	_ = tw.Flush()
}
