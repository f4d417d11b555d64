// Package mocks provides gomock implementations of the repository and port
// interfaces for unit tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	links := mocks.NewMockIdentityLinkRepository(ctrl)
//	links.EXPECT().GetBySubject(gomock.Any(), "123456789012345678").Return(link, nil)
package mocks

// Repository contracts from internal/core:
// IdentityLinkRepository, ContextConfigRepository, JobRepository, ReaperRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=repository_mock.go github.com/trizly/lumi-link/internal/core IdentityLinkRepository,ContextConfigRepository,JobRepository,ReaperRepository

// Port contracts from internal/ports:
// SessionStore, RateLimiter, DiscordOAuth, RobloxOAuth, GuildPlatform, RobloxDirectory
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/trizly/lumi-link/internal/ports SessionStore,RateLimiter,DiscordOAuth,RobloxOAuth,GuildPlatform,RobloxDirectory
