package models

// QuotaLimits фиксированная таблица ограничений тарифа free_lite.
// Это константа, а не счётчик использования.
type QuotaLimits struct {
	DailyTasks           int  `json:"dailyTasks"`
	CalendarIntegrations int  `json:"calendarIntegrations"`
	Scripts              int  `json:"scripts"`
	AIAssistant          bool `json:"aiAssistant"`
	VoiceCalls           bool `json:"voiceCalls"`
	CustomScripts        bool `json:"customScripts"`
	Marketplace          bool `json:"marketplace"`
	TeamMembers          int  `json:"teamMembers"`
}

// LiteLimits квоты бесплатного тарифа, в который распадается обратный триал.
var LiteLimits = QuotaLimits{
	DailyTasks:           5,
	CalendarIntegrations: 1,
	Scripts:              3,
	AIAssistant:          false,
	VoiceCalls:           false,
	CustomScripts:        false,
	Marketplace:          false,
	TeamMembers:          1,
}
