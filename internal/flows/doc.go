// Package flows contains the use-case orchestration logic, isolated from
// the public root package. Each flow is a pure Run* function taking an
// explicit Deps struct, so every step — including each state of the refresh
// coordinator — is testable without a root Engine or a real Redis.
//
// Flows classify failures with flow-local kinds; the root engine maps kinds
// onto its public sentinel errors. Flows never log and never touch metrics
// or audit directly.
package flows
