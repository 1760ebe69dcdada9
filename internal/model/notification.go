// SPDX-License-Identifier: AGPL-3.0-only
package model

import "time"

// NotificationType is the severity of a notification
type NotificationType string

// Notification types
const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
)

// String returns the string representation of the type
func (t NotificationType) String() string {
	return string(t)
}

// Notification is a transient message describing the outcome of a mutation
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}
