// Package errors defines the typed error taxonomy shared by flintrock's
// compute provider, SSH transport, modules, and orchestrator. Callers
// classify with errors.As/errors.Is rather than matching message text.
package errors

import "fmt"

// ClusterNotFound is returned when a cluster lookup yields zero nodes.
type ClusterNotFound struct {
	Name string
}

func (e *ClusterNotFound) Error() string {
	return fmt.Sprintf("cluster not found: %s", e.Name)
}

// ClusterAlreadyExists is the launch precondition failure.
type ClusterAlreadyExists struct {
	Name string
}

func (e *ClusterAlreadyExists) Error() string {
	return fmt.Sprintf("Cluster already exists: %s", e.Name)
}

// SSHUnreachable is returned when connect retries are exhausted against a
// bounded deadline, or at once when a connect error is not retriable.
type SSHUnreachable struct {
	Host  string
	Cause error
}

func (e *SSHUnreachable) Error() string {
	return fmt.Sprintf("could not reach %s over SSH: %v", e.Host, e.Cause)
}

func (e *SSHUnreachable) Unwrap() error { return e.Cause }

// RemoteCommandFailed is returned by the transport when a remote command
// exits non-zero.
type RemoteCommandFailed struct {
	Host   string
	Exit   int
	Stdout string
	Stderr string
}

func (e *RemoteCommandFailed) Error() string {
	return fmt.Sprintf("command on %s exited %d:\n%s%s", e.Host, e.Exit, e.Stdout, e.Stderr)
}

// ProviderError wraps an opaque cloud-API error. Op names the provider
// operation that failed.
type ProviderError struct {
	Op    string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error during %s: %v", e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ModuleInstallFailed carries the module name and version that failed to
// install.
type ModuleInstallFailed struct {
	Module  string
	Version string
	Cause   error
}

func (e *ModuleInstallFailed) Error() string {
	return fmt.Sprintf("could not find package for %s %s: %v", e.Module, e.Version, e.Cause)
}

func (e *ModuleInstallFailed) Unwrap() error { return e.Cause }

// HealthCheckFailed carries the master host and underlying cause of a
// failed fetch or parse of the master's health endpoint.
type HealthCheckFailed struct {
	MasterHost string
	Cause      error
}

func (e *HealthCheckFailed) Error() string {
	return fmt.Sprintf("health check against %s failed: %v", e.MasterHost, e.Cause)
}

func (e *HealthCheckFailed) Unwrap() error { return e.Cause }

// TimeoutError is returned when a bounded wait (VM-state poll, master-UI
// readiness poll, per-node provisioning) exceeds its deadline.
type TimeoutError struct {
	Op      string
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %s", e.Op, e.Elapsed)
}

// UserAbort is returned when an interactive confirmation prompt is
// declined.
type UserAbort struct{}

func (e *UserAbort) Error() string {
	return "aborted"
}
