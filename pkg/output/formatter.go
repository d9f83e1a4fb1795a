package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/modcycle/modcycle/pkg/module"
)

// PrintCycleReport prints a colorized report of the detected import cycles
func PrintCycleReport(workspace string, scanned int, result *module.Result) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("modcycle - Circular Import Report")
	bold.Println("=================================")
	fmt.Printf("Workspace: %s\n", workspace)
	fmt.Printf("Scanned: %d modules\n", scanned)
	fmt.Println()

	if len(result.Cycles) == 0 {
		green.Println("✓ No circular imports found")
	} else {
		red.Printf("CIRCULAR IMPORTS: %d\n", len(result.Cycles))
		fmt.Println()

		for i, cycle := range result.Cycles {
			yellow.Printf("Cycle %d (%d modules):\n", i+1, len(cycle.Members))
			for _, member := range cycle.Members {
				cyan.Printf("  %s\n", relative(workspace, member))
				fmt.Printf("    ↓ imports\n")
			}
			cyan.Printf("  %s\n", relative(workspace, cycle.Members[0]))
			fmt.Printf("  Suggestion: break the loop with dependency inversion or a lazy import\n")
			fmt.Println()
		}
	}

	if result.Trimmed {
		yellow.Println("Note: traversal hit the depth bound; deeper cycles may exist (raise --max-depth)")
	}
}

// relative shortens a module identity to a workspace-relative path when possible
func relative(workspace string, id module.Identity) string {
	if rel, err := filepath.Rel(workspace, id); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return id
}
