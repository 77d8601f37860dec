// Package providers contains the framework's service providers. Each one
// registers a group of related services on a container.Registry and may
// verify or warm them during Boot.
//
//	boot := container.NewProviderRegistry(reg)
//	_ = boot.Register(ctx, &providers.ConfigServiceProvider{})
//	_ = boot.Register(ctx, &providers.LogServiceProvider{Logger: logger})
//	_ = boot.Register(ctx, &providers.DatabaseServiceProvider{})
//	err := boot.Boot(ctx)
package providers
