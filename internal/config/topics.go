package config

const (
	// TopicSummaryCommitted is the default NSQ topic for committed summaries.
	TopicSummaryCommitted = "changelog.summary"

	// TopicRefresh is the default NSQ topic consumed to request a run.
	TopicRefresh = "changelog.refresh"

	// Run triggers recorded in run history.
	TriggerSchedule = "schedule"
	TriggerRead     = "read"
	TriggerAPI      = "api"
	TriggerStartup  = "startup"
	TriggerEvent    = "event"
)
