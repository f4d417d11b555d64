// Package ports defines the interfaces (hexagonal ports) for session storage,
// rate limiting and the external identity platforms. Implementations live in
// internal/adapters; orchestration in internal/service.
package ports
