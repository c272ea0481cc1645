package main

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/samber/lo"
)

const (
	appContainer     = "app"
	logRetentionDays = 14
)

type EcsServiceArgs struct {
	image   *EcrImage
	shared  *SharedInfra
	routing *Routing
	secrets []SecretBinding
	profile SiteProfile
}

// EcsService is the task definition, its log group and the service running it.
type EcsService struct {
	logGroup *cloudwatch.LogGroup
	taskdef  *ecs.TaskDefinition
	service  *ecs.Service
}

func NewEcsService(ctx *pulumi.Context, cfg *Config, args EcsServiceArgs) (*EcsService, error) {
	ecsService := &EcsService{}

	region, err := aws.GetRegion(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Error looking up region: %w", err)
	}

	ecsService.logGroup, err = cloudwatch.NewLogGroup(ctx, cfg.webName()+"-logs", &cloudwatch.LogGroupArgs{
		Name:            pulumi.String(logGroupName(cfg)),
		RetentionInDays: pulumi.IntPtr(logRetentionDays),
		Tags:            cfg.tags("Logs"),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating log group: %w", err)
	}

	containerDef := pulumi.JSONMarshal([]interface{}{
		map[string]interface{}{
			"name":      appContainer,
			"image":     args.image.image.RepoDigest,
			"cpu":       0,
			"essential": true,
			"portMappings": []map[string]interface{}{
				{
					"containerPort": containerPort,
					"hostPort":      0,
					"protocol":      "tcp",
				},
			},
			"environment": containerEnvironment(containerEnv(cfg, args.profile)),
			"secrets":     containerSecrets(args.secrets),
			"mountPoints": []interface{}{},
			"volumesFrom": []interface{}{},
			"logConfiguration": map[string]interface{}{
				"logDriver": "awslogs",
				"options": map[string]interface{}{
					"awslogs-group":         ecsService.logGroup.Name,
					"awslogs-region":        region.Name,
					"awslogs-stream-prefix": "ecs",
				},
			},
		},
	})

	ecsService.taskdef, err = ecs.NewTaskDefinition(ctx, cfg.webName()+"-task", &ecs.TaskDefinitionArgs{
		ContainerDefinitions:    containerDef,
		Family:                  pulumi.String(fmt.Sprintf("%s-%s", cfg.Service, cfg.Env)),
		Cpu:                     pulumi.String("128"),
		Memory:                  pulumi.String("256"),
		ExecutionRoleArn:        pulumi.String(cfg.ExecutionRoleArn),
		TaskRoleArn:             pulumi.String(cfg.TaskRoleArn),
		RequiresCompatibilities: pulumi.ToStringArray([]string{"EC2"}),
		NetworkMode:             pulumi.String("bridge"),
		RuntimePlatform: ecs.TaskDefinitionRuntimePlatformArgs{
			CpuArchitecture:       pulumi.String("ARM64"),
			OperatingSystemFamily: pulumi.String("LINUX"),
		},
		Tags: cfg.tags("Task"),
	}, pulumi.DependsOn([]pulumi.Resource{args.image.image, ecsService.logGroup}))
	if err != nil {
		return nil, fmt.Errorf("Error creating taskdef: %w", err)
	}

	// The target group has to be attached to the listener before ECS will
	// register the service with it.
	ecsService.service, err = ecs.NewService(ctx, cfg.webName()+"-service", &ecs.ServiceArgs{
		Cluster:              pulumi.String(args.shared.ClusterArn),
		TaskDefinition:       ecsService.taskdef.Arn,
		DesiredCount:         pulumi.IntPtr(1),
		LaunchType:           pulumi.String("EC2"),
		PropagateTags:        pulumi.String("TASK_DEFINITION"),
		EnableEcsManagedTags: pulumi.BoolPtr(true),
		DeploymentCircuitBreaker: ecs.ServiceDeploymentCircuitBreakerArgs{
			Enable:   pulumi.Bool(true),
			Rollback: pulumi.Bool(true),
		},
		WaitForSteadyState: pulumi.BoolPtr(false),
		LoadBalancers: ecs.ServiceLoadBalancerArray{
			ecs.ServiceLoadBalancerArgs{
				TargetGroupArn: args.routing.targetGroup.Arn,
				ContainerName:  pulumi.String(appContainer),
				ContainerPort:  pulumi.Int(containerPort),
			},
		},
	}, pulumi.DependsOn([]pulumi.Resource{args.routing.rule}))
	if err != nil {
		return nil, fmt.Errorf("Error creating service: %w", err)
	}

	return ecsService, nil
}

func logGroupName(cfg *Config) string {
	return "/ecs/" + cfg.webName()
}

// containerEnv mirrors the build args the server side reads at runtime.
func containerEnv(cfg *Config, profile SiteProfile) []envVar {
	return []envVar{
		{"NEXT_PUBLIC_BASE_URL", cfg.baseURL()},
		{"NEXT_PUBLIC_SANITY_PROJECT_ID", profile.SanityProjectID},
		{"NEXT_PUBLIC_SANITY_API_VERSION", sanityAPIVersion},
		{"NEXT_PUBLIC_PORT", strconv.Itoa(containerPort)},
		{"AUTH0_BASE_URL", cfg.baseURL()},
		{"NEXT_PUBLIC_NODE_ENV", "production"},
		{"NEXT_PUBLIC_ALGOLIA_INDEX", profile.SearchIndex},
		{"NEXT_PUBLIC_ALGOLIA_APPLICATION_ID", profile.SearchAppID},
		{"NEXT_PUBLIC_ALGOLIA_SEARCH_ONLY_KEY", profile.SearchKey},
		{"NEXT_PUBLIC_SECURE_UPLOADS_URL", profile.CDNURL},
	}
}

func containerEnvironment(vars []envVar) []map[string]interface{} {
	return lo.Map(vars, func(v envVar, _ int) map[string]interface{} {
		return map[string]interface{}{"name": v.name, "value": v.value}
	})
}

func containerSecrets(bindings []SecretBinding) []map[string]interface{} {
	return lo.Map(bindings, func(b SecretBinding, _ int) map[string]interface{} {
		return map[string]interface{}{"name": b.Name, "valueFrom": b.ValueFrom}
	})
}
