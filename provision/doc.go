// Package provision runs one-shot bootstrap tasks such as "ensure bucket X
// exists and is publicly readable".
//
// Every task goes through check, apply and verify:
//
//	applied?  yes -> Skipped
//	          no  -> Apply -> Verify -> Applied, or Failed with *VerificationError
//
// Executions sharing an idempotency key are collapsed, so concurrent callers
// never duplicate a side effect.
package provision
