package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	ecrx "github.com/pulumi/pulumi-awsx/sdk/v2/go/awsx/ecr"
	"github.com/pulumi/pulumi-command/sdk/go/command/local"
	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/samber/lo"
)

type envVar struct {
	name  string
	value string
}

type EcrImage struct {
	repo  *ecrx.Repository
	image *docker.Image
}

func NewEcrDockerBuild(ctx *pulumi.Context, cfg *Config, profile SiteProfile) (*EcrImage, error) {
	ecrImage := &EcrImage{}
	var err error

	ecrImage.repo, err = ecrx.NewRepository(ctx, cfg.webName(), &ecrx.RepositoryArgs{
		Tags: pulumi.StringMap{
			"Client": pulumi.String(cfg.Service),
			"Name":   pulumi.String(fmt.Sprintf("%s %s Web Repo", cfg.Service, cfg.Env)),
		},
	}, pulumi.Protect(true))
	if err != nil {
		return nil, fmt.Errorf("Error creating repo: %w", err)
	}

	tag, err := imageTag(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx.Log.Info(fmt.Sprintf("building %s from %s with tag %s", cfg.webName(), cfg.Dockerfile, tag), nil)

	authToken := ecr.GetAuthorizationTokenOutput(ctx, ecr.GetAuthorizationTokenOutputArgs{})
	ecrImage.image, err = docker.NewImage(ctx, cfg.webName()+"-image", &docker.ImageArgs{
		Registry: docker.RegistryArgs{
			Username: authToken.UserName(),
			Password: pulumi.ToSecret(authToken.ApplyT(func(authToken ecr.GetAuthorizationTokenResult) (*string, error) {
				return &authToken.Password, nil
			})).(pulumi.StringPtrOutput),
		},
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/arm64"),
			Context:    pulumi.String(cfg.BuildContext),
			Dockerfile: pulumi.String(cfg.Dockerfile),
			Args:       toStringMap(buildArgs(cfg, profile)),
		},
		ImageName: ecrImage.repo.Url.ApplyT(func(url string) string {
			return fmt.Sprintf("%s:%s", url, tag)
		}).(pulumi.StringOutput),
	}, pulumi.Protect(true))
	if err != nil {
		return nil, fmt.Errorf("Error creating image: %w", err)
	}

	return ecrImage, nil
}

// imageTag prefers the configured tag and falls back to the git revision of
// the build context, so an unchanged checkout keeps the same image name.
func imageTag(ctx *pulumi.Context, cfg *Config) (string, error) {
	if cfg.ImageTag != "" {
		return cfg.ImageTag, nil
	}
	out, err := local.Run(ctx, &local.RunArgs{
		Dir:     pulumi.StringRef(cfg.BuildContext),
		Command: "git rev-parse --short HEAD",
	})
	if err != nil {
		return "", fmt.Errorf("Error running local command: %w", err)
	}
	tag := strings.TrimSpace(out.Stdout)
	if tag == "" {
		return "", fmt.Errorf("Error resolving image tag: empty git revision in %s", cfg.BuildContext)
	}
	return tag, nil
}

func buildArgs(cfg *Config, profile SiteProfile) []envVar {
	return []envVar{
		{"WORKSPACE", "web"},
		{"NODE_ENV", "production"},
		{"PORT", strconv.Itoa(containerPort)},
		{"NEXT_PUBLIC_SANITY_PROJECT_ID", profile.SanityProjectID},
		{"NEXT_PUBLIC_SANITY_API_VERSION", sanityAPIVersion},
		{"NEXT_PUBLIC_SANITY_DATASET", "production"},
		{"NEXT_PUBLIC_API_URL", cfg.baseURL() + "/api"},
		{"NEXT_PUBLIC_BASE_URL", cfg.baseURL()},
		{"NEXT_PUBLIC_PORT", strconv.Itoa(containerPort)},
		{"NEXT_PUBLIC_NODE_ENV", "production"},
		{"NEXT_PUBLIC_SANITY_STUDIO_TITLE", cfg.Service},
		{"NEXT_PUBLIC_ALGOLIA_INDEX", profile.SearchIndex},
		{"NEXT_PUBLIC_ALGOLIA_SEARCH_ONLY_KEY", profile.SearchKey},
		{"NEXT_PUBLIC_ALGOLIA_APPLICATION_ID", profile.SearchAppID},
		{"NEXT_PUBLIC_SECURE_UPLOADS_URL", profile.CDNURL},
	}
}

func toStringMap(vars []envVar) pulumi.StringMap {
	return lo.SliceToMap(vars, func(v envVar) (string, pulumi.StringInput) {
		return v.name, pulumi.String(v.value)
	})
}
