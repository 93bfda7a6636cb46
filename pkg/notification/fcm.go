package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// DeviceStore looks up and prunes the FCM tokens registered for a user
type DeviceStore interface {
	GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error)
	RemoveDevice(fcmToken string) error
}

// Push is a single mobile notification
type Push struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher sends FCM notifications to every device of a user
type Pusher struct {
	client  *messaging.Client
	devices DeviceStore
}

// NewPusher creates a new FCM pusher. A nil *Pusher is returned when Firebase
// is not configured; its methods are no-ops.
func NewPusher(credentialsFile string, devices DeviceStore) (*Pusher, error) {
	if credentialsFile == "" {
		log.Warn().Msg("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to initialize Firebase app (push notifications disabled)")
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to get messaging client")
		return nil, nil
	}

	log.Info().Msg("✅ Firebase FCM initialized")
	return &Pusher{
		client:  client,
		devices: devices,
	}, nil
}

// Send pushes p to all devices of userID and prunes tokens FCM reports as unregistered
func (s *Pusher) Send(ctx context.Context, userID uuid.UUID, p Push) error {
	if s == nil || s.client == nil {
		return nil
	}

	devices, err := s.devices.GetUserDevices(userID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.FCMToken)
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) {
				if err := s.devices.RemoveDevice(tokens[idx]); err != nil {
					log.Warn().Err(err).Msg("failed to prune FCM token")
				}
				continue
			}
			log.Warn().Err(resp.Error).Str("user_id", userID.String()).Msg("⚠️ FCM failure")
		}
	}

	return nil
}
