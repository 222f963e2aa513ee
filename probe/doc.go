// Package probe decides whether a service is ready to be used by its
// dependents.
//
// A Spec names a check kind and a target. A single Attempt is bounded by
// Spec.Timeout and answers Ready or NotReady. Await repeats attempts up to
// Spec.MaxAttempts, sleeping Spec.RetryInterval between them, and only then
// turns into an Error:
//
//   - *TimeoutError when the last attempt could not reach the target or ran
//     out of time (the dependency is slow or down)
//   - *FailureError when the last attempt got an explicit unhealthy answer
//     (the dependency is up but broken)
//
// Built-in kinds are tcp-connect, http-get, exec-check, postgres and redis.
// More can be added through a Registry. Checks never change the state of
// the probed service.
package probe
