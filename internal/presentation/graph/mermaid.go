// Package graph renders workflow graphs as Mermaid flowcharts for the CLI
// and the HTTP introspection endpoint.
package graph

import (
	"fmt"
	"strings"

	"github.com/arbored/weft/pkg/domain"
)

// Overlay contains dynamic run state to visualize on the graph.
type Overlay struct {
	CompletedNodes []string
	FailedNode     string
}

// GenerateMermaid produces Mermaid flowchart syntax for a compiled graph.
// Shapes carry semantics:
//   - Entry: ((Circle))
//   - End: ((Double circle label))
//   - Default: [Rectangle]
//
// An overlay marks completed and failed nodes from a specific run.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	endID := sanitizeMermaidID(domain.End)

	for _, name := range g.Nodes() {
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		if name == g.Entry() {
			opener, closer = "((", "))" // Circle
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, name, closer)

		for _, to := range g.Dependents(name) {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(to))
		}
	}
	fmt.Fprintf(&sb, "    %s((\"END\"))\n", endID)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.CompletedNodes {
			safeID := sanitizeMermaidID(name)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s completed;\n", safeID)
			}
		}
		if overlay.FailedNode != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", sanitizeMermaidID(overlay.FailedNode))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	// "end" is a reserved word in Mermaid flowcharts.
	if id == domain.End {
		return "END"
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return strings.Trim(s, "_")
}
