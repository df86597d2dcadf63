// Package sshtransport implements C1: authenticated SSH sessions with
// retry, remote command execution with captured output, and file upload
// over SFTP. It is the only component that talks to a node before any
// Module has run.
package sshtransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
)

// retryBackoff matches original_source's fixed 5-second backoff between
// connect attempts.
const retryBackoff = 5 * time.Second

// Session wraps an established SSH client connection to one node.
type Session struct {
	Host   string
	client *ssh.Client
}

// Connect opens an authenticated session to host:22, retrying on
// connection-refused, timeout, and authentication failures with a fixed
// 5-second backoff until ctx is done. Host-key verification is
// permissive: nodes are freshly allocated and have no known host key to
// check against, matching original_source's unconditional trust.
//
// A background context retries forever, mirroring the source. Callers
// that want a bound (the orchestrator, driving a launch deadline) should
// pass a context with a deadline.
func Connect(ctx context.Context, user, host string, signer ssh.Signer, dialTimeout time.Duration) (*Session, error) {
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(host, "22")

	for {
		client, err := ssh.Dial("tcp", addr, config)
		if err == nil {
			return &Session{Host: host, client: client}, nil
		}

		if !isRetriable(err) {
			return nil, &flintrockerrors.SSHUnreachable{Host: host, Cause: err}
		}

		select {
		case <-ctx.Done():
			return nil, &flintrockerrors.SSHUnreachable{Host: host, Cause: ctx.Err()}
		case <-time.After(retryBackoff):
		}
	}
}

// isRetriable classifies connect failures the way original_source's
// get_ssh_client does: a dial timeout or connection-refused is the expected
// shape while a node finishes booting and its sshd isn't listening yet, and
// an authentication failure is retried unconditionally because some images
// (the source notes CentOS specifically) briefly reject the key before
// cloud-init finishes installing it. Anything else - bad DNS, a firewalled
// port, a host key mismatch - is a fatal condition the original re-raises
// rather than loops on, so it fails fast here too.
func isRetriable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	return isAuthFailure(err)
}

// isAuthFailure reports whether err is the handshake-stage rejection
// golang.org/x/crypto/ssh returns for a bad or not-yet-installed key.
// The package does not export a typed error for this, so it is matched the
// same way the client logs it: by the handshake failure message.
func isAuthFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}

// CommandResult captures the outcome of a remote command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes script to completion on the session, capturing stdout and
// stderr separately, and returns RemoteCommandFailed when the exit code
// is non-zero.
func Run(ctx context.Context, s *Session, script string) (*CommandResult, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening SSH session to %s: %w", s.Host, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(script)

	result := &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if runErr == nil {
		return result, nil
	}

	if exitErr, ok := runErr.(*ssh.ExitError); ok {
		result.ExitCode = exitErr.ExitStatus()
		return result, &flintrockerrors.RemoteCommandFailed{
			Host:   s.Host,
			Exit:   result.ExitCode,
			Stdout: result.Stdout,
			Stderr: result.Stderr,
		}
	}

	return nil, fmt.Errorf("running command on %s: %w", s.Host, runErr)
}

// Upload writes contents to path on the node over SFTP with the given
// POSIX file mode, used for the private key, authorized_keys appends,
// and rendered configuration files.
func Upload(s *Session, path string, contents []byte, mode uint32) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("opening SFTP client to %s: %w", s.Host, err)
	}
	defer client.Close()

	f, err := client.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s on %s: %w", path, s.Host, err)
	}
	defer f.Close()

	if _, err := f.Write(contents); err != nil {
		return fmt.Errorf("writing %s on %s: %w", path, s.Host, err)
	}

	if err := client.Chmod(path, os.FileMode(mode)); err != nil {
		return fmt.Errorf("chmod %s on %s: %w", path, s.Host, err)
	}

	return nil
}

// Close releases the underlying SSH connection. Safe to call once per
// Session acquired from Connect.
func Close(s *Session) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
