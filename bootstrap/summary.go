package bootstrap

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kbukum/stackup/dag"
	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/orchestrator"
)

// Summary renders the outcome of a run.
type Summary struct {
	serviceName string
	version     string
	result      *orchestrator.Result
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// Record stores the result to render.
func (s *Summary) Record(res *orchestrator.Result) {
	s.result = res
}

// Result returns the recorded result, nil before Record.
func (s *Summary) Result() *orchestrator.Result {
	return s.result
}

// Render writes a header line, one table row per node in topological
// order and, for an aborted run, every failure with its error code.
func (s *Summary) Render(w io.Writer) {
	res := s.result
	if res == nil {
		fmt.Fprintf(w, "%s %s: nothing ran\n", s.serviceName, s.version)
		return
	}

	fmt.Fprintf(w, "\n%s %s %s in %.2fs (run %s)\n\n",
		outcomeIcon(res.Outcome), s.serviceName, res.Outcome, res.Duration.Seconds(), res.RunID)

	table := newTable(w, "NODE", "KIND", "STATE", "ATTEMPTS", "ELAPSED", "DETAIL")
	for _, n := range res.Nodes {
		attempts := ""
		if n.Attempts > 0 {
			attempts = strconv.Itoa(n.Attempts)
		}
		elapsed := ""
		if n.Elapsed > 0 {
			elapsed = n.Elapsed.Round(time.Millisecond).String()
		}
		table.Append([]string{
			n.ID,
			string(n.Kind),
			stateIcon(n.State) + " " + string(n.State),
			attempts,
			elapsed,
			n.Detail,
		})
	}
	table.Render()

	if !res.Succeeded() {
		fmt.Fprintf(w, "\nfailed node: %s\n", res.FailedNodeID)
		for _, err := range res.Failures {
			fmt.Fprintf(w, "  [%s] %v\n", errors.CodeOf(err), err)
		}
	}
	fmt.Fprintln(w)
}

// RenderPlan writes the topological start order and the parallel levels
// of g.
func RenderPlan(w io.Writer, g *dag.Graph) {
	fmt.Fprintf(w, "start order: %s\n\n", strings.Join(g.TopoOrder(), " -> "))

	table := newTable(w, "LEVEL", "NODES", "DEPENDS ON")
	for i, level := range g.Levels() {
		for j, id := range level {
			lvl := ""
			if j == 0 {
				lvl = strconv.Itoa(i)
			}
			table.Append([]string{lvl, id, strings.Join(g.Dependencies(id), ", ")})
		}
	}
	table.Render()
	fmt.Fprintf(w, "\n%d nodes, at most %d in parallel\n", g.Len(), g.Width())
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func outcomeIcon(o orchestrator.Outcome) string {
	if o == orchestrator.OutcomeSuccess {
		return "✅"
	}
	return "❌"
}

func stateIcon(state orchestrator.State) string {
	switch state {
	case orchestrator.StateReady, orchestrator.StateRunning, orchestrator.StateApplied:
		return "✅"
	case orchestrator.StateSkipped:
		return "⏭️"
	case orchestrator.StateFailed:
		return "❌"
	case orchestrator.StateCanceled:
		return "⏹️"
	case orchestrator.StatePending:
		return "⏸️"
	default:
		return "⚠️"
	}
}
