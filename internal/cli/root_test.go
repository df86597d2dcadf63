package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestResolveStringPrefersExplicitFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	var region string
	cmd.Flags().StringVar(&region, "ec2-region", "us-east-1", "")
	mustSet(t, cmd.Flags().Set("ec2-region", "eu-west-1"))

	got := resolveString(cmd, "ec2-region", region, "ap-south-1")
	assert.Equal(t, "eu-west-1", got)
}

func TestResolveStringFallsBackToConfigWhenFlagUnchanged(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var region string
	cmd.Flags().StringVar(&region, "ec2-region", "us-east-1", "")

	got := resolveString(cmd, "ec2-region", region, "ap-south-1")
	assert.Equal(t, "ap-south-1", got)
}

func TestResolveStringFallsBackToFlagDefaultWhenConfigEmpty(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var region string
	cmd.Flags().StringVar(&region, "ec2-region", "us-east-1", "")

	got := resolveString(cmd, "ec2-region", region, "")
	assert.Equal(t, "us-east-1", got)
}

func TestNewRootCmdRegistersEveryCommand(t *testing.T) {
	root := NewRootCmd(nil)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"launch", "destroy", "start", "stop", "describe", "login", "copy-file", "run-command", "version"} {
		assert.True(t, names[want], "expected %q command to be registered", want)
	}
}

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
