// Package github is a minimal typed client for the GitHub REST API,
// covering exactly what the publisher needs: creating an immutable
// tagged release and attaching artifact assets to it.
//
// Errors are classified for the retry policy: authorization refusals
// (IsPermission) are surfaced immediately because only an operator can
// fix them, while transport failures, rate limits, and 5xx responses
// (IsTransient) may be retried with backoff.
package github
