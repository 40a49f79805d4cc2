package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ridematch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideMatched   NotificationType = "RIDE_MATCHED"
	NotificationRideCancelled NotificationType = "RIDE_CANCELLED"
	NotificationRideCompleted NotificationType = "RIDE_COMPLETED"
	NotificationFareSettled   NotificationType = "FARE_SETTLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRideMatched notifies the initiator that a counterpart accepted.
func (s *NotificationService) NotifyRideMatched(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideMatched,
		RecipientID: ride.InitiatorID,
		Title:       "Ride Matched",
		Message:     "Your ride has been accepted",
		Data: map[string]interface{}{
			"ride_id":        ride.ID,
			"counterpart_id": ride.CounterpartID,
			"fare":           ride.Fare,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideCancelled notifies the other participant about a cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy string) error {
	var recipientID string
	if cancelledBy == ride.InitiatorID {
		recipientID = ride.CounterpartID
	} else {
		recipientID = ride.InitiatorID
	}
	if recipientID == "" {
		return nil // ride was never matched, no one to notify
	}

	notification := Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride Cancelled",
		Message:     "The other participant has cancelled the ride",
		Data: map[string]interface{}{
			"ride_id":      ride.ID,
			"cancelled_by": cancelledBy,
			"reason":       ride.CancelReason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideCompleted notifies both participants that the ride has ended.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) error {
	for _, recipientID := range []string{ride.InitiatorID, ride.CounterpartID} {
		if recipientID == "" {
			continue
		}
		notification := Notification{
			Type:        NotificationRideCompleted,
			RecipientID: recipientID,
			Title:       "Ride Completed",
			Message:     fmt.Sprintf("Your ride has ended. Total fare: %.2f", ride.Fare),
			Data: map[string]interface{}{
				"ride_id": ride.ID,
				"fare":    ride.Fare,
			},
			CreatedAt: time.Now(),
		}
		if err := s.send(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// NotifyFareSettled notifies the offerer that the wallet transfer landed.
func (s *NotificationService) NotifyFareSettled(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationFareSettled,
		RecipientID: ride.OffererID(),
		Title:       "Fare Settled",
		Message:     fmt.Sprintf("Fare of %.2f was credited to your wallet", ride.Fare),
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"fare":    ride.Fare,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Broadcast via WebSocket for real-time updates

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
