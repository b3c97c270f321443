package enums

import "fmt"

// NotificationType distinguishes in-app notification records.
type NotificationType string

const (
	NotificationOrderPlaced    NotificationType = "order_placed"
	NotificationOrderPaid      NotificationType = "order_paid"
	NotificationOrderShipped   NotificationType = "order_shipped"
	NotificationOrderDelivered NotificationType = "order_delivered"
	NotificationAdminNewOrder  NotificationType = "admin_new_order"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderPlaced,
	NotificationOrderPaid,
	NotificationOrderShipped,
	NotificationOrderDelivered,
	NotificationAdminNewOrder,
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
