package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/storage/memory"
)

func newNotificationFixture(t *testing.T) (*NotificationService, *memory.Container, *mockPublisher, people) {
	t.Helper()
	repos := memory.NewContainer()
	pp := seedPeople(t, repos)
	pub := newMockPublisher()
	return NewNotificationService(repos.Notifications(), repos.Users(), pub), repos, pub, pp
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestNotificationService_Create(t *testing.T) {
	svc, _, pub, pp := newNotificationFixture(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateNotificationRequest{UserID: pp.resident.UserID, Title: "Welcome", Message: "Welcome to ABC Apartment"})
	require.NoError(t, err)
	assert.Equal(t, notification.TypeGeneral, n.Type)
	assert.False(t, n.IsRead)

	published := pub.published(event.NotificationCreated)
	require.Len(t, published, 1)
	assert.Equal(t, pp.resident.UserID.String(), published[0].(event.NotificationEvent).UserID)

	_, err = svc.Create(ctx, CreateNotificationRequest{UserID: pp.resident.UserID, Title: "", Message: "x"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestNotificationService_DerivesFromComplaintCreated(t *testing.T) {
	svc, repos, _, pp := newNotificationFixture(t)
	ctx := context.Background()

	retired := &user.User{Email: "retired@abc-apartment.com", PasswordHash: "x", Role: user.RoleManager, IsActive: false}
	require.NoError(t, repos.Users().Create(ctx, retired))

	c := &complaint.Complaint{
		ID: uuid.New(), Title: "Water leak", Category: complaint.CategoryMaintenance,
		Status: complaint.StatusPending, AuthorID: pp.resident.UserID, Apartment: "A101", Building: "Building A",
	}
	require.NoError(t, svc.Dispatch(ctx, event.ComplaintCreated, mustJSON(t, event.NewComplaintEvent(c))))

	for _, staff := range []uuid.UUID{pp.manager.UserID, pp.admin.UserID} {
		list, err := svc.FindByUser(ctx, staff)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, notification.TypeComplaintCreated, list[0].Type)
		assert.Equal(t, c.ID, *list[0].ComplaintID)
		assert.Contains(t, list[0].Message, "Water leak")
	}

	for _, nobody := range []uuid.UUID{retired.ID, pp.resident.UserID} {
		list, err := svc.FindByUser(ctx, nobody)
		require.NoError(t, err)
		assert.Empty(t, list)
	}
}

func TestNotificationService_DerivesForAuthor(t *testing.T) {
	svc, _, _, pp := newNotificationFixture(t)
	ctx := context.Background()

	c := &complaint.Complaint{ID: uuid.New(), Title: "Water leak", Status: complaint.StatusResolved, AuthorID: pp.resident.UserID}
	require.NoError(t, svc.Dispatch(ctx, event.ComplaintUpdated, mustJSON(t, event.NewComplaintEvent(c))))

	deleted := event.ComplaintDeletedEvent{ID: c.ID.String(), UserID: pp.resident.UserID.String(), DeletedAt: "2024-05-01T12:00:00Z"}
	require.NoError(t, svc.Dispatch(ctx, event.ComplaintDeleted, mustJSON(t, deleted)))

	list, err := svc.FindByUser(ctx, pp.resident.UserID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	types := []notification.Type{list[0].Type, list[1].Type}
	assert.ElementsMatch(t, []notification.Type{notification.TypeComplaintUpdated, notification.TypeComplaintDeleted}, types)
	for _, n := range list {
		if n.Type == notification.TypeComplaintUpdated {
			assert.Contains(t, n.Message, "RESOLVED")
		}
	}
}

func TestNotificationService_SkipsAuthorsOwnChanges(t *testing.T) {
	svc, _, _, pp := newNotificationFixture(t)
	ctx := context.Background()

	c := &complaint.Complaint{ID: uuid.New(), Title: "Water leak", Status: complaint.StatusPending, AuthorID: pp.resident.UserID}
	for _, change := range []event.Change{event.ChangeComment, event.ChangeAttachment, event.ChangeFields} {
		e := event.NewComplaintEvent(c).By(pp.resident.UserID, change)
		require.NoError(t, svc.Dispatch(ctx, event.ComplaintUpdated, mustJSON(t, e)))
	}

	list, err := svc.FindByUser(ctx, pp.resident.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)

	e := event.NewComplaintEvent(c).By(pp.manager.UserID, event.ChangeComment)
	require.NoError(t, svc.Dispatch(ctx, event.ComplaintUpdated, mustJSON(t, e)))

	list, err = svc.FindByUser(ctx, pp.resident.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `New comment on your complaint "Water leak"`, list[0].Message)
	assert.NotContains(t, list[0].Message, "PENDING")
}

func TestNotificationService_IgnoresOtherTopics(t *testing.T) {
	svc, _, pub, pp := newNotificationFixture(t)
	ctx := context.Background()

	assert.NoError(t, svc.Dispatch(ctx, event.UserCreated, json.RawMessage(`{"id":"x"}`)))
	assert.NoError(t, svc.Dispatch(ctx, event.NotificationCreated, json.RawMessage(`{}`)))
	assert.Empty(t, pub.published(event.NotificationCreated))

	assert.Error(t, svc.Dispatch(ctx, event.ComplaintUpdated, json.RawMessage(`not json`)))
	assert.Error(t, svc.Dispatch(ctx, event.ComplaintUpdated, json.RawMessage(`{"id":"bad","authorId":"`+pp.resident.UserID.String()+`"}`)))
}

func TestNotificationService_MarkAsReadOwnership(t *testing.T) {
	svc, _, _, pp := newNotificationFixture(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateNotificationRequest{UserID: pp.resident.UserID, Title: "Hi", Message: "There"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateNotificationRequest{UserID: pp.resident.UserID, Title: "Second", Message: "Notice"})
	require.NoError(t, err)

	_, err = svc.MarkAsRead(ctx, n.ID, pp.neighbor.UserID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, n.ID, pp.neighbor.UserID), common.ErrNotFound)

	read, err := svc.MarkAsRead(ctx, n.ID, pp.resident.UserID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := svc.UnreadCount(ctx, pp.resident.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	unread, err := svc.FindUnreadByUser(ctx, pp.resident.UserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Second", unread[0].Title)

	marked, err := svc.MarkAllAsRead(ctx, pp.resident.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	require.NoError(t, svc.Remove(ctx, n.ID, pp.resident.UserID))
}
