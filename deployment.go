package main

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type Deployment struct {
	shared  *SharedInfra
	secrets []SecretBinding
	entry   *PublicEntry
	build   *EcrImage
	routing *Routing
	service *EcsService
	mail    *MailIdentity
}

// NewDeployment declares every resource of one environment. Lookups of shared
// infrastructure happen first so a missing dependency aborts before anything
// is declared.
func NewDeployment(ctx *pulumi.Context, cfg *Config) (*Deployment, error) {
	d := &Deployment{}
	var err error

	profile, err := profileFor(cfg.Kind)
	if err != nil {
		return nil, err
	}

	d.shared, err = lookupSharedInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.secrets, err = newSecretBindings(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.entry, err = NewPublicEntry(ctx, cfg, d.shared)
	if err != nil {
		return nil, err
	}

	d.build, err = NewEcrDockerBuild(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}

	d.routing, err = NewRouting(ctx, cfg, d.shared)
	if err != nil {
		return nil, err
	}

	d.service, err = NewEcsService(ctx, cfg, EcsServiceArgs{
		image:   d.build,
		shared:  d.shared,
		routing: d.routing,
		secrets: d.secrets,
		profile: profile,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case Production:
		d.mail, err = NewMailIdentity(ctx, cfg)
		if err != nil {
			return nil, err
		}
		ctx.Export("smtpUsername", d.mail.SmtpUsername)
	case NonProduction:
		ctx.Log.Debug(fmt.Sprintf("%s is not production, skipping mail identity", cfg.Env), nil)
	}

	return d, nil
}
