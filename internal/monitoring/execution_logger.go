package monitoring

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// LogEvent is a single step outcome the execution logger records: the
// fixed fields a node executor's result actually produces.
type LogEvent struct {
	CampaignID string
	LeadID     string
	NodeID     string
	Kind       domain.NodeKind
	StepIndex  int
	Success    bool
	Verdict    domain.Verdict
	Detail     string
	Timestamp  time.Time
}

// ExecutionLogger defines the interface for logging workflow execution
// events. Implementations can log to console, files, or other
// destinations; this engine ships one, zerolog-backed.
type ExecutionLogger interface {
	// Log logs a single event. This is the main method for all logging.
	Log(event *LogEvent)
}

// ZerologExecutionLogger implements ExecutionLogger over an injected
// *zerolog.Logger, consistent with this repo's no-global-logger rule
// (internal/logging).
type ZerologExecutionLogger struct {
	logger *zerolog.Logger
}

// NewZerologExecutionLogger creates a ZerologExecutionLogger over logger.
func NewZerologExecutionLogger(logger *zerolog.Logger) *ZerologExecutionLogger {
	return &ZerologExecutionLogger{logger: logger}
}

// Log writes event as a single structured line, at warn level for a failed
// step and info otherwise.
func (l *ZerologExecutionLogger) Log(event *LogEvent) {
	var ev *zerolog.Event
	if event.Success {
		ev = l.logger.Info()
	} else {
		ev = l.logger.Warn()
	}
	ev.Str("campaign_id", event.CampaignID).
		Str("lead_id", event.LeadID).
		Str("node_id", event.NodeID).
		Str("kind", string(event.Kind)).
		Int("step", event.StepIndex).
		Bool("success", event.Success).
		Str("verdict", string(event.Verdict)).
		Str("detail", event.Detail).
		Time("ts", event.Timestamp).
		Msg("step executed")
}
