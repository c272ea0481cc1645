package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/require"
)

const testProject = "pulumitest-web"

// mocks records every declared resource and answers every invoke with a
// superset of the fields the lookups read.
type mocks struct {
	mu        sync.Mutex
	resources map[string]pulumi.MockResourceArgs
	failCalls []string
}

func newMocks(failCalls ...string) *mocks {
	return &mocks{
		resources: map[string]pulumi.MockResourceArgs{},
		failCalls: failCalls,
	}
}

func (m *mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	m.mu.Lock()
	m.resources[args.Name] = args
	m.mu.Unlock()

	outputs := args.Inputs.Copy()
	outputs["arn"] = resource.NewStringProperty("arn:aws:mock:::" + args.Name)
	outputs["zoneId"] = resource.NewStringProperty("Z" + strings.ToUpper(args.Name))
	outputs["url"] = resource.NewStringProperty("123456789012.dkr.ecr.us-west-2.amazonaws.com/" + args.Name)
	outputs["repoDigest"] = resource.NewStringProperty("123456789012.dkr.ecr.us-west-2.amazonaws.com/" + args.Name + "@sha256:0000")
	outputs["verificationToken"] = resource.NewStringProperty("token-" + args.Name)
	outputs["sesSmtpPasswordV4"] = resource.NewStringProperty("smtp-" + args.Name)
	if _, ok := outputs["name"]; !ok {
		outputs["name"] = resource.NewStringProperty(args.Name)
	}
	if _, ok := outputs["domain"]; !ok {
		outputs["domain"] = resource.NewStringProperty(args.Name)
	}
	return args.Name + "_id", outputs, nil
}

func (m *mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	for _, token := range m.failCalls {
		if strings.Contains(args.Token, token) {
			return nil, fmt.Errorf("%s: not found", args.Token)
		}
	}
	return resource.NewPropertyMapFromMap(map[string]interface{}{
		"id":       "vpc-0123",
		"arn":      "arn:aws:mock:::" + args.Token,
		"dnsName":  "shared-alb-1234.us-west-2.elb.amazonaws.com",
		"zoneId":   "Z1H1FL5HABSF5",
		"name":     "us-west-2",
		"json":     `{"Version":"2012-10-17"}`,
		"userName": "AWS",
		"password": "ecr-password",
		"stdout":   "abc1234\n",
	}), nil
}

func (m *mocks) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.resources))
	for name := range m.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *mocks) resource(t *testing.T, name string) pulumi.MockResourceArgs {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	args, ok := m.resources[name]
	require.Truef(t, ok, "resource %q was not declared", name)
	return args
}

func (m *mocks) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.resources[name]
	return ok
}

// dependsOn reports whether name was registered with a dependency on dep,
// explicit or through one of its inputs.
func (m *mocks) dependsOn(t *testing.T, name, dep string) bool {
	t.Helper()
	for _, urn := range m.resource(t, name).RegisterRPC.GetDependencies() {
		if strings.HasSuffix(urn, "::"+dep) {
			return true
		}
	}
	return false
}

func (m *mocks) protected(t *testing.T, name string) bool {
	t.Helper()
	return m.resource(t, name).RegisterRPC.GetProtect()
}

// stackConfig returns a complete stack config for env with overrides applied.
// A nil override value removes the key.
func stackConfig(env string, overrides map[string]interface{}) map[string]interface{} {
	cfg := map[string]interface{}{
		"env":         env,
		"alb":         "shared-alb",
		"enlistenerv": "arn:aws:elasticloadbalancing:us-west-2:123456789012:listener/app/shared-alb/1/2",
		"url":         env + ".example.com",
		"imageTag":    "v1",
	}
	for _, name := range requiredSecrets {
		cfg[name] = "secret-" + strings.ToLower(name)
	}
	for k, v := range overrides {
		if v == nil {
			delete(cfg, k)
			continue
		}
		cfg[k] = v
	}
	return cfg
}

func setStackConfig(t *testing.T, cfg map[string]interface{}) {
	t.Helper()
	namespaced := map[string]string{}
	for k, v := range cfg {
		namespaced[testProject+":"+k] = fmt.Sprint(v)
	}
	raw, err := json.Marshal(namespaced)
	require.NoError(t, err)
	t.Setenv("PULUMI_CONFIG", string(raw))
}

func runProgram(t *testing.T, m *mocks, cfg map[string]interface{}) error {
	t.Helper()
	return runDeployment(t, m, cfg, nil)
}

// runDeployment runs the program and hands the built deployment to inspect
// while the engine is still running, so outputs can be read with ApplyT.
func runDeployment(t *testing.T, m *mocks, cfg map[string]interface{}, inspect func(*Deployment)) error {
	t.Helper()
	setStackConfig(t, cfg)
	return pulumi.RunErr(func(ctx *pulumi.Context) error {
		c, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		d, err := NewDeployment(ctx, c)
		if err != nil {
			return err
		}
		if inspect != nil {
			inspect(d)
		}
		return nil
	}, pulumi.WithMocks(testProject, "test", m))
}
