package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-tracker/internal/telegram"
	"options-tracker/internal/types"
)

var testAlert = types.Alert{
	Ticker:       "AAPL",
	TradeID:      "trade-1",
	UserID:       "a@example.com",
	TradeType:    types.Put,
	Severity:     types.SeverityWarning,
	Threshold:    10,
	StrikePrice:  150,
	CurrentPrice: 135,
	Message:      "AAPL is 10%+ below PUT strike $150.00. Current: $135.00",
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) Notification(channel, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[channel+"/"+result]++
}

type fakeChannel struct {
	name string
	err  error
	sent []Payload
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Registered(user *types.User) bool {
	return user.PushRegistration != nil
}

func (f *fakeChannel) Send(_ context.Context, _ *types.User, _ types.Alert, p Payload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p)
	return nil
}

func registeredUser() *types.User {
	return &types.User{
		ID:               "a@example.com",
		PushRegistration: &types.PushRegistration{Endpoint: "https://push.example.com/x"},
	}
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(testAlert)

	assert.Equal(t, "Options Alert: AAPL", p.Title)
	assert.Equal(t, testAlert.Message, p.Body)
	assert.Equal(t, "/logo192.png", p.Icon)
	assert.Equal(t, "/logo192.png", p.Badge)
	assert.Equal(t, "alert-AAPL-trade-1", p.Tag)

	raw, err := p.JSON()
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 5)
	assert.Equal(t, "alert-AAPL-trade-1", decoded["tag"])
}

func TestDispatch_NoRegistrationIsSilent(t *testing.T) {
	rec := &countingRecorder{}
	ch := &fakeChannel{name: "fake"}
	d := NewDispatcher(WithChannel(ch), WithRecorder(rec))

	err := d.Dispatch(context.Background(), &types.User{ID: "guest_1"}, testAlert)

	assert.NoError(t, err)
	assert.Empty(t, ch.sent)
	assert.Empty(t, rec.counts)
}

func TestDispatch_Success(t *testing.T) {
	rec := &countingRecorder{}
	ch := &fakeChannel{name: "fake"}
	d := NewDispatcher(WithChannel(ch), WithRecorder(rec))

	require.NoError(t, d.Dispatch(context.Background(), registeredUser(), testAlert))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "alert-AAPL-trade-1", ch.sent[0].Tag)
	assert.Equal(t, 1, rec.counts["fake/sent"])
}

func TestDispatch_FailureOnOneChannelDoesNotBlockOthers(t *testing.T) {
	rec := &countingRecorder{}
	broken := &fakeChannel{name: "broken", err: errors.New("endpoint gone")}
	working := &fakeChannel{name: "working"}
	d := NewDispatcher(WithChannel(broken), WithChannel(working), WithRecorder(rec))

	err := d.Dispatch(context.Background(), registeredUser(), testAlert)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: endpoint gone")
	assert.Len(t, working.sent, 1)
	assert.Equal(t, 1, rec.counts["broken/failed"])
	assert.Equal(t, 1, rec.counts["working/sent"])
}

func TestDispatch_NilUser(t *testing.T) {
	d := NewDispatcher(WithChannel(&fakeChannel{name: "fake"}))
	assert.NoError(t, d.Dispatch(context.Background(), nil, testAlert))
}

// browserKeys returns a subscription key pair the way a browser would encode it
func browserKeys(t *testing.T) types.PushKeys {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return types.PushKeys{
		P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func vapidConfig(t *testing.T) VAPIDConfig {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return VAPIDConfig{PublicKey: public, PrivateKey: private}
}

func TestNewWebPush_RequiresKeys(t *testing.T) {
	assert.Nil(t, NewWebPush(VAPIDConfig{}, nil))
	assert.Nil(t, NewWebPush(VAPIDConfig{PublicKey: "pub"}, nil))
	assert.NotNil(t, NewWebPush(vapidConfig(t), nil))
}

func TestWebPush_Send(t *testing.T) {
	var (
		gotTTL, gotUrgency, gotAuth, gotEncoding string
		bodyLen                                  int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("TTL")
		gotUrgency = r.Header.Get("Urgency")
		gotAuth = r.Header.Get("Authorization")
		gotEncoding = r.Header.Get("Content-Encoding")
		buf := make([]byte, 8192)
		n, _ := r.Body.Read(buf)
		bodyLen = n
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	wp := NewWebPush(vapidConfig(t), server.Client())
	user := &types.User{
		ID:               "a@example.com",
		PushRegistration: &types.PushRegistration{Endpoint: server.URL + "/push/abc", Keys: browserKeys(t)},
	}

	err := wp.Send(context.Background(), user, testAlert, NewPayload(testAlert))

	require.NoError(t, err)
	assert.Equal(t, "60", gotTTL)
	assert.Equal(t, "normal", gotUrgency)
	assert.True(t, strings.HasPrefix(gotAuth, "vapid t="), gotAuth)
	assert.Equal(t, "aes128gcm", gotEncoding)
	assert.Greater(t, bodyLen, 0)
}

func TestWebPush_SendStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		expired bool
	}{
		{"gone", http.StatusGone, true},
		{"not found", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			wp := NewWebPush(vapidConfig(t), server.Client())
			user := &types.User{
				ID:               "a@example.com",
				PushRegistration: &types.PushRegistration{Endpoint: server.URL, Keys: browserKeys(t)},
			}

			err := wp.Send(context.Background(), user, testAlert, NewPayload(testAlert))

			require.Error(t, err)
			assert.Equal(t, tt.expired, errors.Is(err, ErrExpiredSubscription))
		})
	}
}

func TestWebPush_UrgencyFollowsSeverity(t *testing.T) {
	assert.Equal(t, webpush.UrgencyNormal, urgency(types.SeverityNotice))
	assert.Equal(t, webpush.UrgencyNormal, urgency(types.SeverityWarning))
	assert.Equal(t, webpush.UrgencyHigh, urgency(types.SeverityHigh))
	assert.Equal(t, webpush.UrgencyHigh, urgency(types.SeverityCritical))
}

type recordingSender struct {
	messages []telegram.Message
	err      error
}

func (r *recordingSender) SendMessage(m telegram.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, m)
	return nil
}

func TestTelegram_Send(t *testing.T) {
	sender := &recordingSender{}
	tg := NewTelegram(sender)

	assert.False(t, tg.Registered(&types.User{ID: "x"}))

	user := &types.User{ID: "a@example.com", TelegramChatID: 42}
	require.True(t, tg.Registered(user))
	require.NoError(t, tg.Send(context.Background(), user, testAlert, NewPayload(testAlert)))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, int64(42), sender.messages[0].ChatID)
	assert.Contains(t, sender.messages[0].Text, "*Options Alert: AAPL*")
	assert.Contains(t, sender.messages[0].Text, `10%\+ below PUT strike $150\.00\. Current: $135\.00`)
	assert.Contains(t, sender.messages[0].Text, "`150\\.00`")
}

func TestDispatch_WebPushAndTelegram(t *testing.T) {
	var pushed int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pushed++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	rec := &countingRecorder{}
	sender := &recordingSender{err: errors.New("chat not found")}
	d := NewDispatcher(
		WithChannel(NewWebPush(vapidConfig(t), server.Client())),
		WithChannel(NewTelegram(sender)),
		WithRecorder(rec),
	)

	user := &types.User{
		ID:               "a@example.com",
		TelegramChatID:   42,
		PushRegistration: &types.PushRegistration{Endpoint: server.URL, Keys: browserKeys(t)},
	}
	err := d.Dispatch(context.Background(), user, testAlert)

	require.Error(t, err)
	assert.Equal(t, 1, pushed)
	assert.Equal(t, 1, rec.counts["webpush/sent"])
	assert.Equal(t, 1, rec.counts["telegram/failed"])
}
