package ports

import "pyrelax/internal/types"

type OutputPort interface {
	WritePlan(plan types.RelaxationPlan) error
	WriteUpdated(plan types.RelaxationPlan) error
	WriteLine(text string) error
	WriteInspect(report types.InspectReport, format types.OutputFormat) error
	WriteGroups(groups []types.GroupSummary, format types.OutputFormat) error
}
