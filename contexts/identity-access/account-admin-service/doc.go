// Package accountadmin implements Role & Account-Status Management for
// DealerDesk staff accounts.
//
// Layering:
// - domain: profile/identity entities, audit records, sentinel errors
// - application: access validation, guards, use cases, reconcile workers
// - ports: stable boundaries for identity provider, profiles, audit, outbox
// - adapters: concrete HTTP, memory, postgres, identity-client, event code
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - The identity provider is authoritative for the manager claim and the
//   disabled flag; the profile document is a mirrored, queryable fallback.
// - The identity write and the profile write are not atomic. The identity
//   write always goes first; a profile failure afterwards is the sync-failure
//   outcome, recorded for the reconciler and surfaced as an internal error.
// - Privileged fields change only through the two use cases here; keep new
//   write paths out of adapters.
package accountadmin
