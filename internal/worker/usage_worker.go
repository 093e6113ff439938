package worker

import (
	"github.com/spec-kit/channel-token-service/internal/service"
)

// StartUsageWorker registers usage telemetry handlers.
func StartUsageWorker(usageService *service.UsageService) {
	if usageService == nil {
		return
	}
	usageService.RegisterHandlers()
}
