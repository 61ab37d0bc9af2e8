package samlchain

import (
	"github.com/spauthd/samlchain/internal/chain"
)

// Re-export the filter chain building blocks
type Builder = chain.Builder
type BuilderOption = chain.BuilderOption
type Filter = chain.Filter
type Handler = chain.Handler
type HandlerFunc = chain.HandlerFunc
type SharedObjects = chain.SharedObjects
type PathMatcher = chain.PathMatcher

var (
	NewBuilder        = chain.NewBuilder
	WithBuilderLogger = chain.WithLogger
	NewSharedObjects  = chain.NewSharedObjects
	NewPathMatcher    = chain.NewPathMatcher
)
