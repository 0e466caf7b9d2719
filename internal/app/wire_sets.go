//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewConfig,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var ConversationSet = wire.NewSet(
	NewChatModel,
	NewBriefGenerator,
	NewCatalogSource,
	NewTranscriptStore,
	NewTranscriptRecorder,
	NewDriver,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	ConversationSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
