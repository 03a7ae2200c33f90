package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/abhisek/teacherbean/internal/itembank"
	"github.com/abhisek/teacherbean/internal/ui/theme"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeConfig renders a config on one line, types in canonical order.
func describeConfig(cfg assembly.Config) string {
	var parts []string
	for _, t := range itembank.AllItemTypes {
		if n := cfg.ItemDistribution[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t.DisplayName()))
		}
	}
	types := "no types"
	if len(parts) > 0 {
		types = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%d items (%s); %s", cfg.TotalItems, types, cfg.DifficultyDistribution)
}

func renderAssembly(w io.Writer, requested assembly.Config, res assembly.Result, poolSize int) {
	var b strings.Builder

	status := theme.Status(res.Success, "assembled", "incomplete")
	fmt.Fprintf(&b, "%s  %s\n", theme.Title.Render("Paper"), status)
	fmt.Fprintf(&b, "%s %d items\n", theme.Label.Render("Pool:     "), poolSize)
	fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("Requested:"), describeConfig(requested))
	if res.AdjustedConfig != nil {
		fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("Adjusted: "), describeConfig(*res.AdjustedConfig))
	}

	if len(res.FallbacksApplied) > 0 {
		b.WriteString("\n")
		for i, f := range res.FallbacksApplied {
			fmt.Fprintf(&b, "%s %s\n", theme.Fallback.Render(string(f)), theme.Warned.Render(res.Warnings[i]))
		}
	}
	fmt.Fprintln(w, theme.Card.Render(strings.TrimRight(b.String(), "\n")))

	if len(res.SelectedItems) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-3s  %-36s  %-22s  %-5s  %-6s  %s\n", "#", "ID", "Type", "Level", "Band", "Stem")
	fmt.Fprintln(w, strings.Repeat("─", 110))
	for i, it := range res.SelectedItems {
		fmt.Fprintf(w, "%-3d  %-36s  %-22s  %-5s  %-6s  %s\n",
			i+1, truncate(it.ID, 36), it.Type.DisplayName(), it.Level,
			assembly.BandOf(it.DifficultyScore), truncate(it.Stem, 40))
	}
}

func renderDistributionReport(w io.Writer, cfg assembly.Config, r assembly.DistributionReport, poolSize int) {
	var b strings.Builder
	status := theme.Status(r.IsValid, "satisfiable", "not satisfiable")
	fmt.Fprintf(&b, "%s  %s\n", theme.Title.Render("Check"), status)
	fmt.Fprintf(&b, "%s %d items\n", theme.Label.Render("Pool:     "), poolSize)
	fmt.Fprintf(&b, "%s %s", theme.Label.Render("Requested:"), describeConfig(cfg))
	fmt.Fprintln(w, theme.Card.Render(b.String()))

	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "%s %s\n", theme.Failed.Render("✗"), issue)
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Hint.Render("Add these items to the bank to assemble the paper as written:"))
		short := append([]assembly.Shortfall(nil), r.Suggestions...)
		sort.SliceStable(short, func(i, j int) bool { return short[i].Band == "" && short[j].Band != "" })
		for _, s := range short {
			scope := s.Type.DisplayName()
			if s.Band != "" {
				scope = fmt.Sprintf("%s %s", s.Band, scope)
			}
			fmt.Fprintf(w, "  %-30s  %d more (have %d, need %d)\n", scope, s.Required-s.Available, s.Available, s.Required)
		}
	}
}
