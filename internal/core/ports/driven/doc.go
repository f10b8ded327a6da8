// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Snapshotter: obtains a working tree for one branch
//   - IndexerRunner: invokes the opaque external indexing engine
//   - ManifestFetcher: fetches and caches the artifact manifest
//   - ModuleLoader: loads per-branch query modules
//   - TreeSearcher: live tree-listing fallback
//   - CredentialResolver: access tokens and authenticated remote URLs
//   - ConfigStore: application configuration
//   - SchedulerStore: scheduled task persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
