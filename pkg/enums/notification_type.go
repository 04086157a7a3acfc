package enums

import "fmt"

// NotificationType labels the state transitions surfaced to recipients.
type NotificationType string

const (
	NotificationOrderPlaced      NotificationType = "order_placed"
	NotificationOrderCancelled   NotificationType = "order_cancelled"
	NotificationOrderRefunded    NotificationType = "order_refunded"
	NotificationPaymentSucceeded NotificationType = "payment_succeeded"
	NotificationPaymentFailed    NotificationType = "payment_failed"
	NotificationOrderShipped     NotificationType = "order_shipped"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderPlaced,
	NotificationOrderCancelled,
	NotificationOrderRefunded,
	NotificationPaymentSucceeded,
	NotificationPaymentFailed,
	NotificationOrderShipped,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
