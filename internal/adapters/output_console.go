package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"pyrelax/internal/ports"
	"pyrelax/internal/types"
)

// ConsoleOutputAdapter renders run results for a terminal. Inspect and
// group listings can also be emitted as JSON or YAML for scripting.
type ConsoleOutputAdapter struct {
	Out io.Writer
}

func NewConsoleOutputAdapter(out io.Writer) ConsoleOutputAdapter {
	return ConsoleOutputAdapter{Out: out}
}

func (a ConsoleOutputAdapter) WritePlan(plan types.RelaxationPlan) error {
	if plan.Empty() {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Proposed updates:\n")
	for _, group := range planGroups(plan) {
		fmt.Fprintf(&builder, "group '%s':\n", group.name)
		for _, change := range group.changes {
			fmt.Fprintf(&builder, "  %s: %s -> %s\n", change.Name, change.Old, change.New)
		}
	}
	_, err := io.WriteString(a.Out, builder.String())
	return err
}

func (a ConsoleOutputAdapter) WriteUpdated(plan types.RelaxationPlan) error {
	var builder strings.Builder
	for _, change := range plan.Changes {
		fmt.Fprintf(&builder, "Updated %s constraint from %s to %s in group '%s'\n",
			change.Name, change.Old, change.New, change.Group)
	}
	_, err := io.WriteString(a.Out, builder.String())
	return err
}

func (a ConsoleOutputAdapter) WriteLine(text string) error {
	_, err := fmt.Fprintln(a.Out, text)
	return err
}

func (a ConsoleOutputAdapter) WriteInspect(report types.InspectReport, format types.OutputFormat) error {
	switch format {
	case types.OutputFormatJSON:
		return a.writeJSON(report)
	case types.OutputFormatYAML:
		return a.writeYAML(report)
	}
	var builder strings.Builder
	if report.Project != "" {
		fmt.Fprintf(&builder, "project %s\n", report.Project)
	}
	lastGroup := ""
	for _, entry := range report.Entries {
		if entry.Group != lastGroup {
			fmt.Fprintf(&builder, "group '%s':\n", entry.Group)
			lastGroup = entry.Group
		}
		builder.WriteString(inspectLine(entry))
	}
	_, err := io.WriteString(a.Out, builder.String())
	return err
}

func inspectLine(entry types.InspectEntry) string {
	var line strings.Builder
	line.WriteString("  ")
	line.WriteString(entry.Name)
	if entry.Source == types.SourceKindVersion {
		line.WriteString("  ")
		line.WriteString(entry.Constraint)
	} else {
		fmt.Fprintf(&line, "  (%s dependency)", entry.Source)
	}
	if entry.Range != "" {
		fmt.Fprintf(&line, "  [%s]", entry.Range)
	}
	if entry.Eligible {
		fmt.Fprintf(&line, "  relax -> %s", entry.Relaxed)
	} else if entry.Reason != "" {
		fmt.Fprintf(&line, "  keep (%s)", entry.Reason)
	}
	if entry.Locked != "" {
		fmt.Fprintf(&line, "  locked %s", entry.Locked)
		if !entry.LockedOK {
			line.WriteString(" (outside range)")
		}
	}
	line.WriteString("\n")
	return line.String()
}

func (a ConsoleOutputAdapter) WriteGroups(groups []types.GroupSummary, format types.OutputFormat) error {
	switch format {
	case types.OutputFormatJSON:
		return a.writeJSON(groups)
	case types.OutputFormatYAML:
		return a.writeYAML(groups)
	}
	var builder strings.Builder
	for _, group := range groups {
		noun := "dependencies"
		if group.Count == 1 {
			noun = "dependency"
		}
		fmt.Fprintf(&builder, "%s: %d %s", group.Name, group.Count, noun)
		if group.Optional {
			builder.WriteString(" (optional)")
		}
		builder.WriteString("\n")
	}
	_, err := io.WriteString(a.Out, builder.String())
	return err
}

func (a ConsoleOutputAdapter) writeJSON(value any) error {
	encoder := json.NewEncoder(a.Out)
	// Constraint strings are full of < and >; keep them readable instead
	// of \u003c escapes.
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func (a ConsoleOutputAdapter) writeYAML(value any) error {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = a.Out.Write(encoded)
	return err
}

type planGroup struct {
	name    string
	changes []types.PlannedChange
}

// planGroups buckets changes by group, keeping the order groups first
// appear in the plan.
func planGroups(plan types.RelaxationPlan) []planGroup {
	index := map[string]int{}
	var groups []planGroup
	for _, change := range plan.Changes {
		i, ok := index[change.Group]
		if !ok {
			i = len(groups)
			index[change.Group] = i
			groups = append(groups, planGroup{name: change.Group})
		}
		groups[i].changes = append(groups[i].changes, change)
	}
	return groups
}

var _ ports.OutputPort = ConsoleOutputAdapter{}
