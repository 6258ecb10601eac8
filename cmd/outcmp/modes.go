package main

import (
	"encoding/json"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/ahrav/outcmp/internal/application"
	"github.com/ahrav/outcmp/internal/domain"
)

// modeInfo describes one mode accepted by --mode and compare_mode.
type modeInfo struct {
	Mode        string `json:"mode"`
	Priority    *int   `json:"priority"`
	Description string `json:"description"`
}

var modeDescriptions = map[domain.Mode]string{
	domain.ModeStrict:              "Byte-exact match after Unicode and line ending normalization",
	domain.ModeTrimEOL:             "Ignores trailing whitespace on each line and at the end",
	domain.ModeNormaliseWhitespace: "Collapses runs of spaces within lines, then across lines",
	domain.ModeCanonicalLiteral:    "Parses both outputs as data literals and compares the values",
	domain.ModeFloatEps:            "Compares numbers within float_eps and other tokens exactly",
	domain.ModeTokenSet:            "Compares the sets of whitespace separated tokens",
}

func newModesCmd(global *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the comparison modes in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := global.newEngine(nil)
			if err != nil {
				return err
			}
			infos := describeModes(e.comparator)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, m := range infos {
				priority := "-"
				if m.Priority != nil {
					priority = strconv.Itoa(*m.Priority)
				}
				rows = append(rows, []string{m.Mode, priority, m.Description})
			}
			return markdown.NewMarkdown(cmd.OutOrStdout()).
				Table(markdown.TableSet{
					Header: []string{"Mode", "Priority", "Description"},
					Rows:   rows,
				}).
				Build()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the modes as JSON")
	return cmd
}

func describeModes(c *application.Comparator) []modeInfo {
	modes := c.SupportedModes()
	infos := make([]modeInfo, 0, len(modes))
	for _, m := range modes {
		info := modeInfo{Mode: string(m), Description: modeDescriptions[m]}
		if p, ok := m.Priority(); ok {
			info.Priority = &p
		}
		infos = append(infos, info)
	}
	return infos
}
