package worker

import (
	"github.com/chatdesk-dev/chat-desk/internal/service"
)

// StartNotificationWorker registers notification handlers and returns the
// function that removes them.
func StartNotificationWorker(notificationService *service.NotificationService) func() {
	if notificationService == nil {
		return func() {}
	}
	return notificationService.RegisterHandlers()
}
