// Package ec2provider implements provider.Provider on top of the AWS SDK
// for Go v2's EC2 client. It is the only component that makes real AWS
// API calls; everything else in the orchestrator is written against the
// provider.Provider interface and exercised in tests through
// internal/provider/memory instead.
package ec2provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/Nyansa/flintrock/internal/cluster"
	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
	"github.com/Nyansa/flintrock/internal/provider"
)

// duplicateRuleErrorCode is the code EC2 returns when a security group
// rule being authorized already exists, matching original_source's
// InvalidPermission.Duplicate check.
const duplicateRuleErrorCode = "InvalidPermission.Duplicate"

// Provider drives real EC2 instances and security groups.
type Provider struct {
	client *ec2.Client
}

// New resolves AWS credentials and region through the SDK's default chain
// (environment, shared config file, EC2 instance profile), the same
// resolution original_source leaves to boto's connect_to_region, except
// overridable by an explicit region here rather than relying on implicit
// environment state.
func New(ctx context.Context, region string) (*Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Provider{client: ec2.NewFromConfig(cfg)}, nil
}

func (p *Provider) EnsureSecurityGroups(ctx context.Context, clusterName, vpcID, region string) (provider.SecurityGroupHandle, provider.SecurityGroupHandle, error) {
	baseName := cluster.BaseSecurityGroupName
	clusterGroupName := cluster.ClusterSecurityGroupName(clusterName)

	base, err := p.findOrCreateGroup(ctx, baseName, "flintrock base group", vpcID)
	if err != nil {
		return provider.SecurityGroupHandle{}, provider.SecurityGroupHandle{}, err
	}

	clusterGroup, err := p.findOrCreateGroup(ctx, clusterGroupName, "flintrock cluster group", vpcID)
	if err != nil {
		return provider.SecurityGroupHandle{}, provider.SecurityGroupHandle{}, err
	}

	callerCIDR, err := provider.DiscoverPublicIP(ctx)
	if err != nil {
		return provider.SecurityGroupHandle{}, provider.SecurityGroupHandle{}, fmt.Errorf("discovering caller IP: %w", err)
	}

	if err := p.authorizeIngress(ctx, base.ID, provider.ClientIngressRules(callerCIDR)); err != nil {
		return provider.SecurityGroupHandle{}, provider.SecurityGroupHandle{}, err
	}
	if err := p.authorizeIngress(ctx, clusterGroup.ID, provider.IntraClusterRules(clusterGroup.ID)); err != nil {
		return provider.SecurityGroupHandle{}, provider.SecurityGroupHandle{}, err
	}

	return base, clusterGroup, nil
}

func (p *Provider) findOrCreateGroup(ctx context.Context, name, description, vpcID string) (cluster.SecurityGroup, error) {
	out, err := p.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{
			{Name: aws.String("group-name"), Values: []string{name}},
		},
	})
	if err != nil {
		return cluster.SecurityGroup{}, &flintrockerrors.ProviderError{Op: "DescribeSecurityGroups", Cause: err}
	}
	if len(out.SecurityGroups) > 0 {
		g := out.SecurityGroups[0]
		return cluster.SecurityGroup{ID: aws.ToString(g.GroupId), Name: name, VPCID: vpcID}, nil
	}

	created, err := p.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
		VpcId:       optionalString(vpcID),
	})
	if err != nil {
		return cluster.SecurityGroup{}, &flintrockerrors.ProviderError{Op: "CreateSecurityGroup", Cause: err}
	}

	return cluster.SecurityGroup{ID: aws.ToString(created.GroupId), Name: name, VPCID: vpcID}, nil
}

func (p *Provider) authorizeIngress(ctx context.Context, groupID string, rules []cluster.SecurityGroupRule) error {
	for _, r := range rules {
		perm := types.IpPermission{
			IpProtocol: aws.String(r.Protocol),
			FromPort:   aws.Int32(int32(r.FromPort)),
			ToPort:     aws.Int32(int32(r.ToPort)),
		}
		if r.CIDR != "" {
			perm.IpRanges = []types.IpRange{{CidrIp: aws.String(r.CIDR)}}
		}
		if r.SourceGroupID != "" {
			perm.UserIdGroupPairs = []types.UserIdGroupPair{{GroupId: aws.String(r.SourceGroupID)}}
		}

		_, err := p.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: []types.IpPermission{perm},
		})
		if err != nil && !isDuplicateRuleError(err) {
			return &flintrockerrors.ProviderError{Op: "AuthorizeSecurityGroupIngress", Cause: err}
		}
	}
	return nil
}

func isDuplicateRuleError(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == duplicateRuleErrorCode
}

func (p *Provider) LaunchVMs(ctx context.Context, spec provider.LaunchSpec) ([]provider.NodeHandle, error) {
	input := &ec2.RunInstancesInput{
		ImageId:          aws.String(spec.Image),
		InstanceType:     types.InstanceType(spec.InstanceType),
		MinCount:         aws.Int32(int32(spec.Count)),
		MaxCount:         aws.Int32(int32(spec.Count)),
		KeyName:          optionalString(spec.KeyName),
		SecurityGroupIds: spec.SecurityGroupIDs,
		SubnetId:         optionalString(spec.SubnetID),
		EbsOptimized:     aws.Bool(spec.EBSOptimized),
	}
	if spec.AvailabilityZone != "" {
		input.Placement = &types.Placement{AvailabilityZone: aws.String(spec.AvailabilityZone)}
	}
	if spec.PlacementGroup != "" {
		if input.Placement == nil {
			input.Placement = &types.Placement{}
		}
		input.Placement.GroupName = aws.String(spec.PlacementGroup)
	}
	if spec.Tenancy != "" {
		if input.Placement == nil {
			input.Placement = &types.Placement{}
		}
		input.Placement.Tenancy = types.Tenancy(spec.Tenancy)
	}
	if spec.InstanceInitiatedShutdownBehavior != "" {
		input.InstanceInitiatedShutdownBehavior = types.ShutdownBehavior(spec.InstanceInitiatedShutdownBehavior)
	}
	if spec.SpotPrice != "" {
		input.InstanceMarketOptions = &types.InstanceMarketOptionsRequest{
			MarketType: types.MarketTypeSpot,
			SpotOptions: &types.SpotMarketOptions{
				MaxPrice: aws.String(spec.SpotPrice),
			},
		}
	}

	out, err := p.client.RunInstances(ctx, input)
	if err != nil {
		return nil, &flintrockerrors.ProviderError{Op: "RunInstances", Cause: err}
	}

	handles := make([]provider.NodeHandle, 0, len(out.Instances))
	for _, inst := range out.Instances {
		handles = append(handles, instanceToHandle(inst))
	}
	return handles, nil
}

func instanceToHandle(inst types.Instance) provider.NodeHandle {
	tags := make(map[string]string, len(inst.Tags))
	for _, t := range inst.Tags {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return provider.NodeHandle{
		ID:             aws.ToString(inst.InstanceId),
		State:          instanceStateToNodeState(inst.State),
		PublicHostname: aws.ToString(inst.PublicDnsName),
		Address:        aws.ToString(inst.PublicIpAddress),
		Tags:           tags,
	}
}

func instanceStateToNodeState(s *types.InstanceState) cluster.NodeState {
	if s == nil {
		return cluster.StatePending
	}
	switch s.Name {
	case types.InstanceStateNameRunning:
		return cluster.StateRunning
	case types.InstanceStateNamePending:
		return cluster.StatePending
	case types.InstanceStateNameStopping:
		return cluster.StateStopping
	case types.InstanceStateNameStopped:
		return cluster.StateStopped
	case types.InstanceStateNameShuttingDown, types.InstanceStateNameTerminated:
		return cluster.StateTerminated
	default:
		return cluster.StatePending
	}
}

func (p *Provider) Tag(ctx context.Context, nodeIDs []string, tags map[string]string) error {
	ec2Tags := make([]types.Tag, 0, len(tags))
	for k, v := range tags {
		ec2Tags = append(ec2Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	_, err := p.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: nodeIDs,
		Tags:      ec2Tags,
	})
	if err != nil {
		return &flintrockerrors.ProviderError{Op: "CreateTags", Cause: err}
	}
	return nil
}

func (p *Provider) ListCluster(ctx context.Context, clusterName, region string) ([]provider.NodeHandle, error) {
	return p.describeByGroupName(ctx, cluster.ClusterSecurityGroupName(clusterName))
}

// ListAllClusters mirrors describe_ec2's reconstruction of cluster
// identity entirely from security-group membership: every group whose
// name starts with "flintrock-" names one cluster.
func (p *Provider) ListAllClusters(ctx context.Context, region string) (map[string][]provider.NodeHandle, error) {
	nodes, err := p.describeByGroupName(ctx, "")
	if err != nil {
		return nil, err
	}

	result := make(map[string][]provider.NodeHandle)
	groups, err := p.nodeGroupNames(ctx, nodes)
	if err != nil {
		return nil, err
	}
	for id, names := range groups {
		var node *provider.NodeHandle
		for i := range nodes {
			if nodes[i].ID == id {
				node = &nodes[i]
				break
			}
		}
		if node == nil {
			continue
		}
		for _, name := range names {
			if len(name) > len("flintrock-") && name[:len("flintrock-")] == "flintrock-" {
				clusterName := name[len("flintrock-"):]
				result[clusterName] = append(result[clusterName], *node)
			}
		}
	}
	return result, nil
}

// nodeGroupNames re-describes instances to recover their security-group
// names, which DescribeInstances returns but instanceToHandle does not
// keep on NodeHandle; kept separate so describeByGroupName can stay a
// thin filter-by-name query.
func (p *Provider) nodeGroupNames(ctx context.Context, nodes []provider.NodeHandle) (map[string][]string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	out, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids})
	if err != nil {
		return nil, &flintrockerrors.ProviderError{Op: "DescribeInstances", Cause: err}
	}

	result := make(map[string][]string)
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			id := aws.ToString(inst.InstanceId)
			for _, g := range inst.SecurityGroups {
				result[id] = append(result[id], aws.ToString(g.GroupName))
			}
		}
	}
	return result, nil
}

func (p *Provider) describeByGroupName(ctx context.Context, groupName string) ([]provider.NodeHandle, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped"},
			},
		},
	}
	if groupName != "" {
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("instance.group-name"),
			Values: []string{groupName},
		})
	} else {
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("instance.group-name"),
			Values: []string{"flintrock-*"},
		})
	}

	out, err := p.client.DescribeInstances(ctx, input)
	if err != nil {
		return nil, &flintrockerrors.ProviderError{Op: "DescribeInstances", Cause: err}
	}

	var handles []provider.NodeHandle
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			handles = append(handles, instanceToHandle(inst))
		}
	}
	return handles, nil
}

func (p *Provider) Start(ctx context.Context, nodeIDs []string) error {
	_, err := p.client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: nodeIDs})
	if err != nil {
		return &flintrockerrors.ProviderError{Op: "StartInstances", Cause: err}
	}
	return nil
}

func (p *Provider) Stop(ctx context.Context, nodeIDs []string) error {
	_, err := p.client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: nodeIDs})
	if err != nil {
		return &flintrockerrors.ProviderError{Op: "StopInstances", Cause: err}
	}
	return nil
}

func (p *Provider) Terminate(ctx context.Context, nodeIDs []string) error {
	_, err := p.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: nodeIDs})
	if err != nil {
		return &flintrockerrors.ProviderError{Op: "TerminateInstances", Cause: err}
	}
	return nil
}

func (p *Provider) Refresh(ctx context.Context, node provider.NodeHandle) (provider.NodeHandle, error) {
	out, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{node.ID},
	})
	if err != nil {
		return provider.NodeHandle{}, &flintrockerrors.ProviderError{Op: "DescribeInstances", Cause: err}
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return provider.NodeHandle{}, fmt.Errorf("ec2 provider: instance %s not found", node.ID)
	}
	return instanceToHandle(out.Reservations[0].Instances[0]), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
