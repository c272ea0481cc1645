package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const (
	defaultCluster      = "ig-dev-3631767"
	defaultVpcID        = "vpc-05fe1cfe39cb385ed"
	defaultService      = "pulumitest"
	defaultDomain       = "intergalactic.space"
	defaultRoleArn      = "arn:aws:iam::917877734628:role/ecsTaskExecutionRole"
	defaultDockerfile   = "../../.docker/next.Dockerfile"
	defaultBuildContext = "../../"
	defaultMailDomain   = "intergalactic.com"
	defaultMailZoneID   = "Z01707952S9R61QRTSNP0"
	defaultMailSender   = "dev+pulumitest@intergalactic.com"
	httpsListenerPort   = 443
	containerPort       = 3000
	healthCheckPath     = "/api/healthz"
	healthCheckMatcher  = "200"
	sanityAPIVersion    = "2023-06-01"
	secureString        = "SecureString"
)

// requiredSecrets are injected into the app container from SSM. Every name
// must have a secret value in the stack config.
var requiredSecrets = []string{
	"SANITY_WEBHOOK_SECRET",
	"SANITY_PREVIEW_TOKEN",
	"API_KEY_ALGOLIA_ROUTES",
	"AUTH0_AUDIENCE",
	"AUTH0_ISSUER_BASE_URL",
	"AUTH0_SECRET",
	"AUTH0_CLIENT_ID",
	"AUTH0_CLIENT_SECRET",
	"ALGOLIA_ROUTES_API_KEY",
	"ALGOLIA_WRITE_API_KEY",
	"POWERBI_CLIENT_ID",
	"POWERBI_CLIENT_SECRET",
	"POWERBI_TENANT",
}

type MailConfig struct {
	Domain string
	ZoneID string
	Sender string
}

type SecretValue struct {
	Name  string
	Value pulumi.StringOutput
}

// Config is read once per run and handed to every stage.
type Config struct {
	Env              string
	Kind             EnvironmentKind
	Service          string
	Domain           string
	URL              string
	ClusterName      string
	VpcID            string
	AlbName          string
	ListenerArn      string
	CertArn          string
	RulePriority     int
	TaskRoleArn      string
	ExecutionRoleArn string
	Dockerfile       string
	BuildContext     string
	ImageTag         string
	Mail             MailConfig
	Secrets          []SecretValue
}

func loadConfig(ctx *pulumi.Context) (*Config, error) {
	c := config.New(ctx, "")

	cfg := &Config{
		ClusterName:      getOr(c, "cluster", defaultCluster),
		VpcID:            getOr(c, "vpcId", defaultVpcID),
		Service:          getOr(c, "service", defaultService),
		Domain:           getOr(c, "domain", defaultDomain),
		CertArn:          c.Get("cert"),
		TaskRoleArn:      getOr(c, "taskRoleArn", defaultRoleArn),
		ExecutionRoleArn: getOr(c, "executionRoleArn", defaultRoleArn),
		Dockerfile:       getOr(c, "dockerfile", defaultDockerfile),
		BuildContext:     getOr(c, "buildContext", defaultBuildContext),
		ImageTag:         c.Get("imageTag"),
		Mail: MailConfig{
			Domain: getOr(c, "mailDomain", defaultMailDomain),
			ZoneID: getOr(c, "mailZoneId", defaultMailZoneID),
			Sender: getOr(c, "mailSender", defaultMailSender),
		},
	}

	var missing []string
	for _, req := range []struct {
		key string
		dst *string
	}{
		{"env", &cfg.Env},
		{"alb", &cfg.AlbName},
		{"enlistenerv", &cfg.ListenerArn},
		{"url", &cfg.URL},
	} {
		if *req.dst = c.Get(req.key); *req.dst == "" {
			missing = append(missing, req.key)
		}
	}

	// An empty secret counts as missing, same as an empty required key.
	for _, name := range requiredSecrets {
		if c.Get(name) == "" {
			missing = append(missing, name)
			continue
		}
		cfg.Secrets = append(cfg.Secrets, SecretValue{Name: name, Value: c.GetSecret(name)})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Error reading config: missing required keys %s", strings.Join(missing, ", "))
	}

	cfg.Kind = kindOf(cfg.Env)

	priority, err := rulePriority(c.Get("rulePriority"), cfg.Env)
	if err != nil {
		return nil, err
	}
	cfg.RulePriority = priority

	return cfg, nil
}

func rulePriority(raw, env string) (int, error) {
	if raw == "" {
		return rulePriorityFor(env), nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("Error reading config rulePriority: %w", err)
	}
	if p < 1 || p > maxRulePriority {
		return 0, fmt.Errorf("Error reading config rulePriority: %d is outside 1..%d", p, maxRulePriority)
	}
	return p, nil
}

func getOr(c *config.Config, key, def string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return def
}

func (c *Config) hostHeader() string {
	return fmt.Sprintf("%s.%s.%s", c.Service, c.Env, c.Domain)
}

func (c *Config) baseURL() string {
	return "https://" + c.URL
}

// name derives stable resource names from the service, environment and role.
func (c *Config) name(role string) string {
	return fmt.Sprintf("%s-%s-%s", c.Service, c.Env, role)
}

func (c *Config) webName() string {
	return fmt.Sprintf("%s-web-%s", c.Service, c.Env)
}

func (c *Config) tags(what string) pulumi.StringMap {
	return pulumi.StringMap{
		"Client": pulumi.String(c.Service),
		"Name":   pulumi.String(fmt.Sprintf("%s Web %s %s", c.Service, c.Env, what)),
	}
}
