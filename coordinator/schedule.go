package coordinator

import (
	"sort"

	"github.com/agentcore-dev/agentcore/core"
)

// resolveOrder produces a dependency-safe ordering of the batch. It
// repeatedly selects every remaining task whose dependencies are all in the
// scheduled set, orders the selection by descending priority, and appends it.
// When nothing is selectable (a cycle or a dependency on an agent absent from
// the batch) the entire remainder is taken as-is rather than deadlocking; the
// anomaly is logged and the affected tasks execute without their ordering
// guarantee.
func (c *Coordinator) resolveOrder(tasks []*core.Task) []*core.Task {
	remaining := make([]*core.Task, len(tasks))
	copy(remaining, tasks)

	scheduled := make(map[string]bool)
	sorted := make([]*core.Task, 0, len(tasks))

	for len(remaining) > 0 {
		var ready, blocked []*core.Task
		for _, task := range remaining {
			if depsSatisfied(task, scheduled) {
				ready = append(ready, task)
			} else {
				blocked = append(blocked, task)
			}
		}

		if len(ready) == 0 {
			agents := make([]string, len(blocked))
			for i, task := range blocked {
				agents[i] = task.AgentName
			}
			c.logger.Warn("unresolvable task dependencies, scheduling remainder as-is", "agents", agents)
			ready = blocked
			blocked = nil
		}

		sort.SliceStable(ready, func(i, j int) bool {
			return ready[i].Priority > ready[j].Priority
		})

		sorted = append(sorted, ready...)
		for _, task := range ready {
			scheduled[task.AgentName] = true
		}
		remaining = blocked
	}

	return sorted
}

// groupStages walks the resolved order and opens a new stage whenever the
// next task's dependencies are not yet covered by agents completed in prior
// stages. Tasks within one stage have no unmet dependency on one another and
// may run concurrently.
func groupStages(sorted []*core.Task) [][]*core.Task {
	var stages [][]*core.Task
	completed := make(map[string]bool)

	var current []*core.Task
	currentAgents := make(map[string]bool)

	flush := func() {
		if len(current) == 0 {
			return
		}
		stages = append(stages, current)
		for agent := range currentAgents {
			completed[agent] = true
		}
		current = nil
		currentAgents = make(map[string]bool)
	}

	for _, task := range sorted {
		if !depsSatisfied(task, completed) {
			flush()
		}
		current = append(current, task)
		currentAgents[task.AgentName] = true
	}
	flush()

	return stages
}

func depsSatisfied(task *core.Task, done map[string]bool) bool {
	for _, dep := range task.DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}
