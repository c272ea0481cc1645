package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// SharedInfra is infrastructure owned by another stack. It is only read.
type SharedInfra struct {
	VpcID       string
	AlbArn      string
	AlbDNSName  string
	AlbZoneID   string
	ClusterArn  string
	ListenerArn string
}

func lookupSharedInfra(ctx *pulumi.Context, cfg *Config) (*SharedInfra, error) {
	shared := &SharedInfra{}

	vpc, err := ec2.LookupVpc(ctx, &ec2.LookupVpcArgs{
		Id: pulumi.StringRef(cfg.VpcID),
	})
	if err != nil {
		return nil, fmt.Errorf("Error looking up vpc %q: %w", cfg.VpcID, err)
	}
	shared.VpcID = vpc.Id

	alb, err := lb.LookupLoadBalancer(ctx, &lb.LookupLoadBalancerArgs{
		Name: pulumi.StringRef(cfg.AlbName),
	})
	if err != nil {
		return nil, fmt.Errorf("Error looking up load balancer %q: %w", cfg.AlbName, err)
	}
	shared.AlbArn = alb.Arn
	shared.AlbDNSName = alb.DnsName
	shared.AlbZoneID = alb.ZoneId

	cluster, err := ecs.LookupCluster(ctx, &ecs.LookupClusterArgs{
		ClusterName: cfg.ClusterName,
	})
	if err != nil {
		return nil, fmt.Errorf("Error looking up cluster %q: %w", cfg.ClusterName, err)
	}
	shared.ClusterArn = cluster.Arn

	listener, err := lb.LookupListener(ctx, &lb.LookupListenerArgs{
		Arn:             pulumi.StringRef(cfg.ListenerArn),
		LoadBalancerArn: pulumi.StringRef(shared.AlbArn),
		Port:            pulumi.IntRef(httpsListenerPort),
	})
	if err != nil {
		return nil, fmt.Errorf("Error looking up listener %q: %w", cfg.ListenerArn, err)
	}
	shared.ListenerArn = listener.Arn

	for _, got := range []struct{ what, v string }{
		{"vpc", shared.VpcID},
		{"load balancer", shared.AlbArn},
		{"cluster", shared.ClusterArn},
		{"listener", shared.ListenerArn},
	} {
		if got.v == "" {
			return nil, fmt.Errorf("Error looking up %s: not found", got.what)
		}
	}

	return shared, nil
}
