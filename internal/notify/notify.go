package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/types"
	"options-tracker/lib/translation"
)

const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

const notificationIcon = "/logo192.png"

// Payload is the JSON document a browser service worker renders as a notification
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	Tag   string `json:"tag"`
}

func NewPayload(a types.Alert) Payload {
	return Payload{
		Title: translation.Translate("Options Alert: %s", a.Ticker),
		Body:  a.Message,
		Icon:  notificationIcon,
		Badge: notificationIcon,
		Tag:   fmt.Sprintf("alert-%s-%s", a.Ticker, a.TradeID),
	}
}

func (p Payload) JSON() ([]byte, error) {
	return json.Marshal(p)
}

// Channel delivers alerts over one transport
type Channel interface {
	Name() string
	// Registered reports whether the user can be reached on this channel
	Registered(user *types.User) bool
	// Send must be safe for concurrent use
	Send(ctx context.Context, user *types.User, a types.Alert, p Payload) error
}

// Recorder counts delivery attempts per channel and result
type Recorder interface {
	Notification(channel, result string)
}

// Dispatcher fans an alert out to every channel the owner has registered
type Dispatcher struct {
	channels []Channel
	recorder Recorder
}

type Option func(d *Dispatcher)

func WithChannel(c Channel) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.channels = append(d.channels, c)
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch tries every registered channel. A user with no registration is skipped silently,
// channel failures are joined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, user *types.User, a types.Alert) error {
	if user == nil {
		return nil
	}

	payload := NewPayload(a)
	var failures []string

	attempted := 0
	for _, c := range d.channels {
		if !c.Registered(user) {
			continue
		}
		attempted++

		fields := log.Fields{"channel": c.Name(), "user_id": user.ID, "ticker": a.Ticker, "trade_id": a.TradeID}
		if err := c.Send(ctx, user, a, payload); err != nil {
			log.WithFields(fields).WithError(err).Warn("Notification delivery failed")
			d.record(c.Name(), ResultFailed)
			failures = append(failures, fmt.Sprintf("%s: %v", c.Name(), err))
			continue
		}
		log.WithFields(fields).Info("📲 Alert notification sent")
		d.record(c.Name(), ResultSent)
	}

	if attempted == 0 {
		log.WithField("user_id", user.ID).Debug("user has no notification channel registered")
		return nil
	}
	if len(failures) > 0 {
		return errors.Errorf("notification failed on %d of %d channels: %s", len(failures), attempted, strings.Join(failures, "; "))
	}
	return nil
}

func (d *Dispatcher) record(channel, result string) {
	if d.recorder != nil {
		d.recorder.Notification(channel, result)
	}
}
