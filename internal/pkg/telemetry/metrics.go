package telemetry

// Span and attribute names used for instrumentation.
const (
	SpanExecuteCommand = "command.execute"
	SpanPublishEvent   = "event.publish"

	AttrCommand = "mapcat.command"
	AttrSource  = "mapcat.source"
	AttrResult  = "mapcat.result"
	AttrAction  = "mapcat.action"
)
