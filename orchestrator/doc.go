// Package orchestrator brings a stack of services and bootstrap tasks up in
// dependency order.
//
// Every node runs in its own goroutine and waits until all of its
// dependencies reached a terminal success state. Services are launched and
// then polled until their readiness probe passes; tasks are executed through
// a provision.Executor. The run ends with one Result naming the node that
// blocked it.
//
//	orch, err := orchestrator.New(services, tasks, orchestrator.Config{Timeout: 5 * time.Minute})
//	if err != nil {
//	    // static defect: cycle, unknown dependency, invalid probe
//	}
//	result := orch.Run(ctx)
//	if !result.Succeeded() {
//	    log.Printf("blocked at %s: %v", result.FailedNodeID, result.Cause)
//	}
package orchestrator
