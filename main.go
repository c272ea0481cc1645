package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		_, err = NewDeployment(ctx, cfg)
		if err != nil {
			return err
		}

		return nil
	})
}
