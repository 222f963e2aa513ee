// Package component defines the lifecycle interface shared by managed
// services and the registry that stops them again.
//
// The orchestrator starts services in dependency order. Every service that
// can be stopped is started through the Registry, which remembers the order
// and stops them in reverse on shutdown.
//
// # Interfaces
//
//   - Component: lifecycle (Name/Start/Stop/Health)
//   - Func: builds a Component from start and stop functions
package component
