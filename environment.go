package main

import "fmt"

type EnvironmentKind int

const (
	NonProduction EnvironmentKind = iota
	Production
)

const productionEnv = "production"

func kindOf(env string) EnvironmentKind {
	if env == productionEnv {
		return Production
	}
	return NonProduction
}

func (k EnvironmentKind) String() string {
	switch k {
	case Production:
		return "production"
	case NonProduction:
		return "non-production"
	}
	return fmt.Sprintf("EnvironmentKind(%d)", int(k))
}

// SiteProfile holds the public, environment dependent values baked into the
// image and mirrored into the container environment.
type SiteProfile struct {
	SanityProjectID string
	SearchIndex     string
	SearchKey       string
	SearchAppID     string
	CDNURL          string
}

func profileFor(kind EnvironmentKind) (SiteProfile, error) {
	switch kind {
	case Production:
		return SiteProfile{
			SanityProjectID: "xjetorgi",
			SearchIndex:     "prod_contentHub",
			SearchKey:       "f4dafff8d6d54fcc764cd6ffcc334dca",
			SearchAppID:     "ABRJ5NEDAZ",
			CDNURL:          "https://aiq-cdn.pulumitest.com",
		}, nil
	case NonProduction:
		return SiteProfile{
			SanityProjectID: "s9egr9mn",
			SearchIndex:     "Test_pulumitest",
			SearchKey:       "af30881c89beeff19f2537b70d84ffcf",
			SearchAppID:     "WX23VFIASO",
			CDNURL:          "https://pulumitest-cdn.staging.intergalactic.space",
		}, nil
	}
	return SiteProfile{}, fmt.Errorf("no site profile for %s", kind)
}
