package notify

import (
	"context"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"

	"options-tracker/internal/types"
)

const (
	ChannelWebPush = "webpush"

	DefaultSubscriber = "mailto:alerts@optionstrade.com"
	webPushTTL        = 60
	webPushTimeout    = 10 * time.Second
)

// ErrExpiredSubscription marks an endpoint the push service no longer accepts
var ErrExpiredSubscription = errors.New("push subscription expired")

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// WebPush sends encrypted VAPID notifications to browser push endpoints
type WebPush struct {
	vapid  VAPIDConfig
	client *http.Client
}

// NewWebPush returns nil when no VAPID key pair is configured
func NewWebPush(vapid VAPIDConfig, client *http.Client) *WebPush {
	if vapid.PublicKey == "" || vapid.PrivateKey == "" {
		return nil
	}
	if vapid.Subject == "" {
		vapid.Subject = DefaultSubscriber
	}
	if client == nil {
		client = &http.Client{Timeout: webPushTimeout}
	}
	return &WebPush{vapid: vapid, client: client}
}

func (w *WebPush) Name() string { return ChannelWebPush }

func (w *WebPush) Registered(user *types.User) bool {
	return user.PushRegistration != nil && user.PushRegistration.Endpoint != ""
}

func (w *WebPush) Send(ctx context.Context, user *types.User, a types.Alert, p Payload) error {
	body, err := p.JSON()
	if err != nil {
		return errors.Wrap(err, "marshal push payload")
	}

	reg := user.PushRegistration
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: reg.Endpoint,
		Keys: webpush.Keys{
			P256dh: reg.Keys.P256dh,
			Auth:   reg.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.vapid.Subject,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             webPushTTL,
		Urgency:         urgency(a.Severity),
	})
	if err != nil {
		return errors.Wrap(err, "send web push")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return errors.Wrapf(ErrExpiredSubscription, "push service returned status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}

func urgency(s types.Severity) webpush.Urgency {
	if s >= types.SeverityHigh {
		return webpush.UrgencyHigh
	}
	return webpush.UrgencyNormal
}
