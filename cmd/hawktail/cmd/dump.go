package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/hawktail/internal/filter"
	"github.com/telhawk-systems/hawktail/internal/snapshot"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

var (
	dumpMinLevel   string
	dumpNamespaces []string
	dumpSearch     string
	dumpRegex      bool
	dumpCaseSens   bool
	dumpExtra      bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <snapshot>",
	Short: "Print records from a snapshot file",
	Long: `Loads a snapshot and prints its records, optionally filtered the
same way a live view would be.

Examples:
  hawktail dump capture.json
  hawktail dump capture.json.gz --min-level warning --namespace app.db
  hawktail dump capture.json --search "timeout" --regex`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVar(&dumpMinLevel, "min-level", "", "minimum level, by name or number")
	dumpCmd.Flags().StringSliceVar(&dumpNamespaces, "namespace", nil, "logger namespace(s); descendants included")
	dumpCmd.Flags().StringVar(&dumpSearch, "search", "", "text to match in message and exception")
	dumpCmd.Flags().BoolVar(&dumpRegex, "regex", false, "treat --search as a regular expression")
	dumpCmd.Flags().BoolVar(&dumpCaseSens, "case-sensitive", false, "match case in --search")
	dumpCmd.Flags().BoolVar(&dumpExtra, "extra", false, "also match --search against extra fields")
}

func runDump(cmd *cobra.Command, args []string) error {
	f := model.Filter{
		Namespaces: dumpNamespaces,
		Search: model.SearchSpec{
			Term:          dumpSearch,
			Regex:         dumpRegex,
			CaseSensitive: dumpCaseSens,
			IncludeExtra:  dumpExtra,
		},
	}
	if dumpMinLevel != "" {
		level, err := parseLevel(dumpMinLevel)
		if err != nil {
			return err
		}
		f.MinLevel = level
	}

	s, err := snapshot.Load(args[0], "dump")
	if err != nil {
		return err
	}
	v, err := filter.NewView(s, f)
	if err != nil {
		return err
	}
	defer v.Close()

	out := cmd.OutOrStdout()
	for _, rec := range v.Records() {
		fmt.Fprintf(out, "%s  %-8s %-20s %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05.000"),
			levelLabel(&rec), rec.LoggerName, rec.Message)
		if rec.HasException() {
			for _, line := range strings.Split(rec.Exception(), "\n") {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(out, "%d of %d records\n", v.Len(), s.Len())
	return nil
}

func levelLabel(rec *model.Record) string {
	if rec.LevelName != "" {
		return rec.LevelName
	}
	if name := model.LevelName(rec.Level); name != "" {
		return name
	}
	return strconv.Itoa(rec.Level)
}

func parseLevel(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if level, ok := model.LevelByName(s); ok {
		return level, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}
