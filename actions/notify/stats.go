package notify

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	sentCount   = stats.Int64("ghdiscord/relay/sent", "Number of comments relayed to Discord", stats.UnitDimensionless)
	failedCount = stats.Int64("ghdiscord/relay/failed", "Number of comments that could not be relayed to Discord", stats.UnitDimensionless)
)

// Views count relayed and failed notifications. Register them with view.Register.
var Views = []*view.View{
	{
		Name:        "ghdiscord/relay/sent_count",
		Measure:     sentCount,
		Description: "Count of comments relayed to Discord",
		Aggregation: view.Count(),
	},
	{
		Name:        "ghdiscord/relay/failed_count",
		Measure:     failedCount,
		Description: "Count of comments that failed to relay to Discord",
		Aggregation: view.Count(),
	},
}

func recordSent(ctx context.Context) {
	stats.Record(ctx, sentCount.M(1))
}

func recordFailed(ctx context.Context) {
	stats.Record(ctx, failedCount.M(1))
}
