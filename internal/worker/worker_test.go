package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/pkg/queue"
)

type fakeNotifStore struct {
	byID   map[uuid.UUID]*models.Notification
	sent   []uuid.UUID
	failed []uuid.UUID
}

func (s *fakeNotifStore) GetByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.byID[id], nil
}

func (s *fakeNotifStore) MarkSent(_ context.Context, id uuid.UUID) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeNotifStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeUserStore struct {
	byID map[uuid.UUID]*models.User
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.byID[id], nil
}

type sentMessage struct {
	to, subject, body string
}

type fakeSender struct {
	messages []sentMessage
	err      error
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, sentMessage{to: to, subject: subject, body: body})
	return nil
}

func notificationJob(t *testing.T, notificationID, tenantID uuid.UUID) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.NotificationPayload{
		NotificationID: notificationID,
		TenantID:       tenantID,
	})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeNotification, Payload: payload}
}

func queuedFixture() (*fakeNotifStore, *fakeUserStore, *models.Notification) {
	user := &models.User{ID: uuid.New(), Email: "head@example.com"}
	n := &models.Notification{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		RecipientID: user.ID,
		Kind:        models.NotifyStickerExpiring,
		Subject:     "Vehicle sticker ABC-123 expires soon",
		Body:        "Renew it to keep gate access.",
		Status:      models.NotificationQueued,
	}
	notifStore := &fakeNotifStore{byID: map[uuid.UUID]*models.Notification{n.ID: n}}
	userStore := &fakeUserStore{byID: map[uuid.UUID]*models.User{user.ID: user}}
	return notifStore, userStore, n
}

func TestProcessDeliversQueuedNotification(t *testing.T) {
	notifStore, userStore, n := queuedFixture()
	sender := &fakeSender{}
	p := NewNotificationProcessor(notifStore, userStore, sender, nil, nil)

	err := p.Process(context.Background(), notificationJob(t, n.ID, n.TenantID))
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "head@example.com", sender.messages[0].to)
	assert.Equal(t, n.Subject, sender.messages[0].subject)
	assert.Equal(t, []uuid.UUID{n.ID}, notifStore.sent)
	assert.Empty(t, notifStore.failed)
}

func TestProcessSkipsAlreadySentNotification(t *testing.T) {
	notifStore, userStore, n := queuedFixture()
	n.Status = models.NotificationSent
	sender := &fakeSender{}
	p := NewNotificationProcessor(notifStore, userStore, sender, nil, nil)

	err := p.Process(context.Background(), notificationJob(t, n.ID, n.TenantID))
	require.NoError(t, err)
	assert.Empty(t, sender.messages, "already-sent notification must not be re-delivered")
	assert.Empty(t, notifStore.sent)
}

func TestProcessDropsMissingNotification(t *testing.T) {
	notifStore := &fakeNotifStore{byID: map[uuid.UUID]*models.Notification{}}
	sender := &fakeSender{}
	p := NewNotificationProcessor(notifStore, &fakeUserStore{}, sender, nil, nil)

	err := p.Process(context.Background(), notificationJob(t, uuid.New(), uuid.New()))
	require.NoError(t, err, "a vanished row is dropped, not retried")
	assert.Empty(t, sender.messages)
}

func TestProcessSendFailureIsRetryable(t *testing.T) {
	notifStore, userStore, n := queuedFixture()
	sender := &fakeSender{err: errors.New("smtp refused")}
	p := NewNotificationProcessor(notifStore, userStore, sender, nil, nil)

	err := p.Process(context.Background(), notificationJob(t, n.ID, n.TenantID))
	require.Error(t, err)
	assert.Empty(t, notifStore.sent, "failed delivery must stay queued")
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p := NewNotificationProcessor(&fakeNotifStore{}, &fakeUserStore{}, &fakeSender{}, nil, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "mystery"})
	assert.Error(t, err)
}
