package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tailmates/notification/internal/application"
	"github.com/tailmates/notification/internal/domain"
)

// --- Fakes ---

type fakeRepo struct {
	mu        sync.Mutex
	created   []domain.Notification
	createErr error
}

func (r *fakeRepo) Create(_ context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	n := domain.Notification{
		ID:          uuid.New(),
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Body:        input.Body,
		Data:        input.Data,
		CreatedAt:   time.Now(),
	}
	r.mu.Lock()
	r.created = append(r.created, n)
	r.mu.Unlock()
	return &n, nil
}

func (r *fakeRepo) List(context.Context, domain.NotificationFilter) ([]*domain.Notification, error) {
	return nil, nil
}
func (r *fakeRepo) GetByID(context.Context, uuid.UUID) (*domain.Notification, error) {
	return nil, domain.ErrNotFound
}
func (r *fakeRepo) MarkRead(context.Context, uuid.UUID, string) error     { return nil }
func (r *fakeRepo) MarkAllRead(context.Context, string) (int64, error)    { return 0, nil }
func (r *fakeRepo) Delete(context.Context, uuid.UUID, string) error       { return nil }
func (r *fakeRepo) CountUnread(context.Context, string) (int64, error)    { return 0, nil }
func (r *fakeRepo) PurgeOlderThan(context.Context, int) (int64, error)    { return 0, nil }

type fakeDirectory struct {
	profiles map[string]*domain.Profile
	threads  map[string]*domain.MessageThread
}

func (d *fakeDirectory) ProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (d *fakeDirectory) ThreadByID(_ context.Context, id string) (*domain.MessageThread, error) {
	t, ok := d.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type fakePusher struct {
	mu      sync.Mutex
	sent    []application.PushMessage
	sendErr error
}

func (p *fakePusher) Send(_ context.Context, msg application.PushMessage) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.mu.Lock()
	p.sent = append(p.sent, msg)
	p.mu.Unlock()
	return nil
}

type noopHub struct{}

func (noopHub) Broadcast(string, *domain.Notification) {}

// --- Fixtures ---

func newFixture() (*application.Service, *fakeRepo, *fakeDirectory, *fakePusher) {
	repo := &fakeRepo{}
	dir := &fakeDirectory{
		profiles: map[string]*domain.Profile{
			"u1": {ID: "u1", FullName: "Olivia Owner", PushToken: "ExponentPushToken[owner]"},
			"u2": {ID: "u2", FullName: "Sam Sitter", PushToken: "ExponentPushToken[sitter]"},
			"u3": {ID: "u3", FullName: "No Token"},
		},
		threads: map[string]*domain.MessageThread{
			"t1": {ID: "t1", OwnerID: "u1", SitterID: "u2"},
		},
	}
	pusher := &fakePusher{}
	svc := application.NewService(repo, dir, pusher, noopHub{}, time.Second)
	return svc, repo, dir, pusher
}

func event(table string, record, oldRecord any) domain.ChangeEvent {
	ev := domain.ChangeEvent{Type: "UPDATE", Table: table}
	ev.Record, _ = json.Marshal(record)
	if oldRecord != nil {
		ev.OldRecord, _ = json.Marshal(oldRecord)
		return ev
	}
	ev.Type = "INSERT"
	return ev
}

// --- Router ---

func TestHandleEvent_UnknownTable_IsSuccessNoOp(t *testing.T) {
	svc, repo, _, _ := newFixture()

	err := svc.HandleEvent(context.Background(), event("pet_photos", map[string]string{"id": "x"}, nil))
	if err != nil {
		t.Fatalf("unknown table must be a no-op, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected zero notifications, got %d", len(repo.created))
	}
}

func TestHandleEvent_MalformedEnvelope(t *testing.T) {
	svc, repo, _, _ := newFixture()

	err := svc.HandleEvent(context.Background(), domain.ChangeEvent{Type: "INSERT"})
	if !errors.Is(err, domain.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("malformed event must not create notifications")
	}
}

// --- Message handler ---

func TestMessage_RecipientIsOtherParticipant(t *testing.T) {
	cases := []struct {
		name          string
		senderID      string
		wantRecipient string
		wantTitle     string
	}{
		{"owner sends, sitter receives", "u1", "u2", "Olivia Owner"},
		{"sitter sends, owner receives", "u2", "u1", "Sam Sitter"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _, _ := newFixture()

			ev := event(domain.TableMessages, map[string]string{
				"id": "m1", "thread_id": "t1", "sender_id": tc.senderID, "content": "see you at 5",
			}, nil)
			if err := svc.HandleEvent(context.Background(), ev); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(repo.created) != 1 {
				t.Fatalf("expected exactly one notification, got %d", len(repo.created))
			}
			n := repo.created[0]
			if n.RecipientID != tc.wantRecipient {
				t.Errorf("recipient = %s, want %s", n.RecipientID, tc.wantRecipient)
			}
			if n.Type != domain.TypeMessage {
				t.Errorf("type = %s, want message", n.Type)
			}
			if n.Title != tc.wantTitle {
				t.Errorf("title = %q, want %q", n.Title, tc.wantTitle)
			}
			if n.Body != "see you at 5" {
				t.Errorf("body = %q, want verbatim content", n.Body)
			}
			if n.Data["threadId"] != "t1" || n.Data["messageId"] != "m1" {
				t.Errorf("data = %v, want threadId/messageId", n.Data)
			}
		})
	}
}

func TestMessage_MissingThread_AbortsWithoutNotification(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableMessages, map[string]string{
		"id": "m1", "thread_id": "missing", "sender_id": "u1", "content": "hi",
	}, nil)
	if err := svc.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected failure for missing thread")
	}
	if len(repo.created) != 0 {
		t.Fatal("no notification may be created when the thread is missing")
	}
}

func TestMessage_MissingSender_AbortsWithoutNotification(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableMessages, map[string]string{
		"id": "m1", "thread_id": "t1", "sender_id": "ghost", "content": "hi",
	}, nil)
	if err := svc.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected failure for missing sender profile")
	}
	if len(repo.created) != 0 {
		t.Fatal("no notification may be created when the sender is missing")
	}
}

// --- Booking handler ---

func bookingRecord(status string) map[string]string {
	return map[string]string{"id": "b1", "owner_id": "u1", "sitter_id": "u2", "status": status}
}

func TestBooking_Creation_NotifiesSitter(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableBoardingBookings, bookingRecord("pending"), nil)
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != "u2" {
		t.Errorf("recipient = %s, want sitter u2", n.RecipientID)
	}
	if n.Type != domain.TypeBookingRequest {
		t.Errorf("type = %s, want booking_request", n.Type)
	}
	if n.Data["bookingId"] != "b1" || n.Data["bookingType"] != "boarding" {
		t.Errorf("data = %v, want bookingId b1 / bookingType boarding", n.Data)
	}
}

func TestBooking_CreationWithNullOldRecord_NotifiesSitter(t *testing.T) {
	svc, repo, _, _ := newFixture()

	// Creation delivered with an explicit "old_record": null must take the
	// creation branch, not the status-change branch.
	var ev domain.ChangeEvent
	raw := `{
		"type": "INSERT",
		"table": "walking_bookings",
		"record": {"id":"b1","owner_id":"u1","sitter_id":"u2","status":"pending"},
		"old_record": null
	}`
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != "u2" {
		t.Errorf("recipient = %s, want sitter u2", n.RecipientID)
	}
	if n.Type != domain.TypeBookingRequest {
		t.Errorf("type = %s, want booking_request", n.Type)
	}
	if n.Data["bookingId"] != "b1" || n.Data["bookingType"] != "walking" {
		t.Errorf("data = %v, want bookingId b1 / bookingType walking", n.Data)
	}
}

func TestBooking_StatusUnchanged_NoNotification(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableWalkingBookings, bookingRecord("pending"), bookingRecord("pending"))
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected zero notifications, got %d", len(repo.created))
	}
}

func TestBooking_StatusChange_NotifiesOwner(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableWalkingBookings, bookingRecord("confirmed"), map[string]string{"status": "pending"})
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != "u1" {
		t.Errorf("recipient = %s, want owner u1", n.RecipientID)
	}
	if n.Type != domain.TypeBookingStatus {
		t.Errorf("type = %s, want booking_status", n.Type)
	}
	if n.Data["bookingId"] != "b1" || n.Data["status"] != "confirmed" {
		t.Errorf("data = %v, want bookingId b1 / status confirmed", n.Data)
	}
}

func TestBooking_MissingProfile_AbortsWholeHandler(t *testing.T) {
	svc, repo, dir, _ := newFixture()
	delete(dir.profiles, "u2")

	ev := event(domain.TableWalkingBookings, bookingRecord("pending"), nil)
	if err := svc.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected failure when a participant profile is missing")
	}
	if len(repo.created) != 0 {
		t.Fatal("no notification may be created when a profile is missing")
	}
}

// --- Review handler ---

func TestReview_NotifiesReviewee(t *testing.T) {
	svc, repo, _, _ := newFixture()

	ev := event(domain.TableReviews, map[string]string{
		"id": "r1", "reviewer_id": "u1", "reviewee_id": "u2",
	}, nil)
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != "u2" {
		t.Errorf("recipient = %s, want reviewee u2", n.RecipientID)
	}
	if n.Type != domain.TypeReview {
		t.Errorf("type = %s, want review", n.Type)
	}
	if n.Title != "Olivia Owner" {
		t.Errorf("title = %q, want reviewer name", n.Title)
	}
	if n.Data["reviewId"] != "r1" {
		t.Errorf("data = %v, want reviewId r1", n.Data)
	}
}

// --- Writer ---

func TestNotify_InsertFailure_SkipsPush(t *testing.T) {
	svc, repo, _, pusher := newFixture()
	repo.createErr = errors.New("insert exploded")

	_, err := svc.Notify(context.Background(), domain.CreateNotificationInput{
		RecipientID: "u1", Type: domain.TypeMessage, Title: "x", Body: "y",
	})
	if err == nil {
		t.Fatal("expected error when the row insert fails")
	}
	if len(pusher.sent) != 0 {
		t.Fatal("no push may be attempted when the insert fails")
	}
}

func TestNotify_PushFailure_RowStillWritten(t *testing.T) {
	svc, repo, _, pusher := newFixture()
	pusher.sendErr = errors.New("DeviceNotRegistered")

	res, err := svc.Notify(context.Background(), domain.CreateNotificationInput{
		RecipientID: "u1", Type: domain.TypeMessage, Title: "x", Body: "y",
	})
	if err != nil {
		t.Fatalf("push failure must not fail the operation, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatal("the notification row must exist despite the push failure")
	}
	if res.Push.Status != domain.PushFailed {
		t.Errorf("push status = %s, want failed", res.Push.Status)
	}
	if res.Push.Reason == "" {
		t.Error("failed push must carry a reason")
	}
}

func TestNotify_NoToken_PushSkipped(t *testing.T) {
	svc, _, _, pusher := newFixture()

	res, err := svc.Notify(context.Background(), domain.CreateNotificationInput{
		RecipientID: "u3", Type: domain.TypeReview, Title: "x", Body: "y",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Push.Status != domain.PushSkipped {
		t.Errorf("push status = %s, want skipped", res.Push.Status)
	}
	if len(pusher.sent) != 0 {
		t.Fatal("no push may be sent without a token")
	}
}

func TestNotify_Delivered(t *testing.T) {
	svc, _, _, pusher := newFixture()

	res, err := svc.Notify(context.Background(), domain.CreateNotificationInput{
		RecipientID: "u2",
		Type:        domain.TypeBookingRequest,
		Title:       "New booking request",
		Body:        "Olivia Owner requested a walking booking with you.",
		Data:        map[string]any{"bookingId": "b1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Push.Status != domain.PushDelivered {
		t.Errorf("push status = %s, want delivered", res.Push.Status)
	}
	if len(pusher.sent) != 1 {
		t.Fatalf("expected one push, got %d", len(pusher.sent))
	}
	msg := pusher.sent[0]
	if msg.To != "ExponentPushToken[sitter]" {
		t.Errorf("push to = %s, want sitter token", msg.To)
	}
	if msg.Sound != "default" || msg.Priority != "high" {
		t.Errorf("push sound/priority = %s/%s", msg.Sound, msg.Priority)
	}
}
