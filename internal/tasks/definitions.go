package tasks

import (
	"fortexx_ledger/internal/services"
)

// DefineTasks registers all available tasks. Discord tasks are only
// registered when a webhook is configured.
func DefineTasks(registry *Registry, discord *services.DiscordService) {
	if discord.Enabled() {
		announce := &AnnouncePaymentTaskDef{Discord: discord}
		registry.Register(announce.TaskID(), announce.HandleExecution)

		digest := &PaymentDigestTaskDef{Discord: discord}
		registry.Register(digest.TaskID(), digest.HandleExecution)
	}
}
