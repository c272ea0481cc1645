package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// PublicEntry is the hosted zone for the deployment URL and its apex record.
type PublicEntry struct {
	zone   *route53.Zone
	record *route53.Record
}

// NewPublicEntry declares the hosted zone for the deployment URL and an apex
// alias to the shared load balancer.
func NewPublicEntry(ctx *pulumi.Context, cfg *Config, shared *SharedInfra) (*PublicEntry, error) {
	entry := &PublicEntry{}
	var err error

	entry.zone, err = route53.NewZone(ctx, cfg.name("zone"), &route53.ZoneArgs{
		Name: pulumi.String(cfg.URL),
	}, pulumi.Protect(true))
	if err != nil {
		return nil, fmt.Errorf("Error creating zone: %w", err)
	}

	entry.record, err = route53.NewRecord(ctx, fmt.Sprintf("%s-a-%s", cfg.Env, cfg.Service), &route53.RecordArgs{
		ZoneId: entry.zone.ZoneId,
		Name:   pulumi.String(""),
		Type:   pulumi.String("A"),
		Aliases: route53.RecordAliasArray{
			route53.RecordAliasArgs{
				EvaluateTargetHealth: pulumi.Bool(true),
				Name:                 pulumi.String(shared.AlbDNSName),
				ZoneId:               pulumi.String(shared.AlbZoneID),
			},
		},
	}, pulumi.Protect(true))
	if err != nil {
		return nil, fmt.Errorf("Error creating alias record: %w", err)
	}

	return entry, nil
}
