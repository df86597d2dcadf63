package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
)

func TestClusterNotFoundMessage(t *testing.T) {
	err := &flintrockerrors.ClusterNotFound{Name: "myspark"}
	assert.Equal(t, "cluster not found: myspark", err.Error())
}

func TestClusterAlreadyExistsMessage(t *testing.T) {
	err := &flintrockerrors.ClusterAlreadyExists{Name: "myspark"}
	assert.Contains(t, err.Error(), "myspark")
}

func TestSSHUnreachableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &flintrockerrors.SSHUnreachable{Host: "10.0.0.1", Cause: cause}

	assert.True(t, errors.Is(err, cause))
}

func TestRemoteCommandFailedIncludesStreams(t *testing.T) {
	err := &flintrockerrors.RemoteCommandFailed{
		Host:   "10.0.0.1",
		Exit:   1,
		Stdout: "partial output\n",
		Stderr: "boom\n",
	}
	msg := err.Error()
	assert.Contains(t, msg, "partial output")
	assert.Contains(t, msg, "boom")
	assert.Contains(t, msg, "10.0.0.1")
}

func TestProviderErrorUnwraps(t *testing.T) {
	cause := errors.New("InvalidPermission.Duplicate")
	err := &flintrockerrors.ProviderError{Op: "AuthorizeSecurityGroupIngress", Cause: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "AuthorizeSecurityGroupIngress")
}

func TestModuleInstallFailedNamesVersion(t *testing.T) {
	err := &flintrockerrors.ModuleInstallFailed{
		Module:  "spark",
		Version: "9.9.9",
		Cause:   errors.New("404"),
	}
	assert.Contains(t, err.Error(), "spark")
	assert.Contains(t, err.Error(), "9.9.9")
}

func TestHealthCheckFailedWrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := &flintrockerrors.HealthCheckFailed{MasterHost: "master.example.com", Cause: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &flintrockerrors.TimeoutError{Op: "nodes reaching running", Elapsed: "10m0s"}
	assert.Equal(t, "timed out waiting for nodes reaching running after 10m0s", err.Error())
}

func TestUserAbortMessage(t *testing.T) {
	err := &flintrockerrors.UserAbort{}
	assert.Equal(t, "aborted", err.Error())
}
