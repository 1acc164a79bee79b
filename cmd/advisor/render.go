package main

import (
	"fmt"
	"strings"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/pkg/utils"
)

// renderActions prints a human-readable table of proposed actions, the
// same priority-icon/column layout displayFeeOptimizationSuggestions uses,
// adapted to the two variables this advisor proposes (balance, feeRate)
// instead of fee-optimizer categories.
func renderActions(acts []actions.Action) {
	if len(acts) == 0 {
		fmt.Println("No actions proposed; every channel is within bounds.")
		return
	}

	fmt.Println("\nProposed Actions")
	fmt.Println(strings.Repeat("─", 90))
	fmt.Printf("%-8s %-20s %-10s %12s %12s %12s %s\n",
		"Entity", "ID/Alias", "Variable", "Actual", "Target", "Max", "Reason")
	fmt.Println(strings.Repeat("─", 90))

	for _, a := range acts {
		label := "node"
		if a.ID != nil {
			label = *a.ID
			if a.Alias != nil && *a.Alias != "" {
				label = *a.Alias
			}
		}
		if len(label) > 20 {
			label = label[:17] + "..."
		}

		icon := priorityIcon(a.Priority)
		fmt.Printf("%s %-6s %-20s %-10s %12s %12s %12s %s\n",
			icon, a.Entity, label, a.Variable,
			utils.FormatSatsCompact(a.Actual), utils.FormatSatsCompact(a.Target), utils.FormatSatsCompact(a.Max), a.Reason)
	}

	fmt.Println(strings.Repeat("─", 90))
	fmt.Printf("%d action(s) proposed\n\n", len(acts))
}

func priorityIcon(p uint32) string {
	switch {
	case p >= 10:
		return "🔴"
	case p >= 2:
		return "🟡"
	default:
		return "🟢"
	}
}
