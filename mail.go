package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ses"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// MailIdentity is the SES sending setup. Only production declares one.
// SmtpUsername is the access key id, which SES accepts as the SMTP user name.
type MailIdentity struct {
	SmtpUsername pulumi.IDOutput
}

func NewMailIdentity(ctx *pulumi.Context, cfg *Config) (*MailIdentity, error) {
	protect := pulumi.Protect(true)

	domain, err := ses.NewDomainIdentity(ctx, cfg.name("ses-domain"), &ses.DomainIdentityArgs{
		Domain: pulumi.String(cfg.Mail.Domain),
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating ses domain identity: %w", err)
	}

	record, err := route53.NewRecord(ctx, cfg.name("ses-verification-record"), &route53.RecordArgs{
		ZoneId:  pulumi.String(cfg.Mail.ZoneID),
		Name:    pulumi.Sprintf("_amazonses.%s", domain.Domain),
		Type:    pulumi.String("TXT"),
		Ttl:     pulumi.IntPtr(600),
		Records: pulumi.StringArray{domain.VerificationToken},
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating ses verification record: %w", err)
	}

	_, err = ses.NewDomainIdentityVerification(ctx, cfg.name("ses-verification"), &ses.DomainIdentityVerificationArgs{
		Domain: domain.Domain,
	}, pulumi.DependsOn([]pulumi.Resource{record}), protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating ses domain verification: %w", err)
	}

	_, err = ses.NewEmailIdentity(ctx, cfg.name("ses-email"), &ses.EmailIdentityArgs{
		Email: pulumi.String(cfg.Mail.Sender),
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating ses email identity: %w", err)
	}

	sendPolicy, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Effect:    pulumi.StringRef("Allow"),
				Actions:   []string{"ses:SendRawEmail", "ses:SendEmail"},
				Resources: []string{"*"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp policy document: %w", err)
	}
	policy, err := iam.NewPolicy(ctx, cfg.name("ses-smtp-policy"), &iam.PolicyArgs{
		Policy: pulumi.String(sendPolicy.Json),
		Tags:   cfg.tags("SMTP Policy"),
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp policy: %w", err)
	}

	user, err := iam.NewUser(ctx, cfg.name("ses-smtp-user"), &iam.UserArgs{
		ForceDestroy: pulumi.BoolPtr(true),
		Tags:         cfg.tags("SMTP Access User"),
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp user: %w", err)
	}

	_, err = iam.NewUserPolicyAttachment(ctx, cfg.name("ses-smtp-policy-attachment"), &iam.UserPolicyAttachmentArgs{
		User:      user.Name,
		PolicyArn: policy.Arn,
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp policy attachment: %w", err)
	}

	accessKey, err := iam.NewAccessKey(ctx, cfg.name("ses-smtp-access-key"), &iam.AccessKeyArgs{
		User: user.Name,
	}, protect)
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp access key: %w", err)
	}

	_, err = ssm.NewParameter(ctx, cfg.name("smtp-password"), &ssm.ParameterArgs{
		Type:  pulumi.String(secureString),
		Value: accessKey.SesSmtpPasswordV4,
		Tags:  cfg.tags("SMTP Access User Password"),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating smtp password parameter: %w", err)
	}

	return &MailIdentity{SmtpUsername: accessKey.ID()}, nil
}
