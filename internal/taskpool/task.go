// Package taskpool implements a thread pool: worker threads with a
// two-slot handoff, and a pool that assigns tasks to free workers or
// queues them in a backlog.
//
// Task is a plain interface rather than an inline envelope — the concrete
// task types this repository has (*AcceptTask, *slowTask) are pointers to
// small structs that each submitter allocates, with no hand-rolled
// small-object optimization; see DESIGN.md for the full rationale.
package taskpool

// Task is the polymorphic work item capability every pool task satisfies.
type Task interface {
	Execute()
}
