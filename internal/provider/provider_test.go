package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/provider"
)

func TestClientIngressRulesCoversSSHAndSparkUIPorts(t *testing.T) {
	rules := provider.ClientIngressRules("203.0.113.5/32")

	assert.Contains(t, rules, cluster.SecurityGroupRule{Protocol: "tcp", FromPort: 22, ToPort: 22, CIDR: "203.0.113.5/32"})
	assert.Contains(t, rules, cluster.SecurityGroupRule{Protocol: "tcp", FromPort: 8080, ToPort: 8081, CIDR: "203.0.113.5/32"})
	assert.Contains(t, rules, cluster.SecurityGroupRule{Protocol: "tcp", FromPort: 4040, ToPort: 4040, CIDR: "203.0.113.5/32"})

	for _, r := range rules {
		assert.Equal(t, "203.0.113.5/32", r.CIDR)
		assert.Empty(t, r.SourceGroupID)
	}
}

func TestIntraClusterRulesAreSelfReferential(t *testing.T) {
	rules := provider.IntraClusterRules("sg-cluster123")

	protocols := make(map[string]bool)
	for _, r := range rules {
		assert.Equal(t, "sg-cluster123", r.SourceGroupID)
		assert.Empty(t, r.CIDR)
		protocols[r.Protocol] = true
	}

	assert.True(t, protocols["icmp"])
	assert.True(t, protocols["tcp"])
	assert.True(t, protocols["udp"])
}
