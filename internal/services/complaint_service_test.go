package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/cache"
	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/objectstore"
	"github.com/gravadigital/residencia-api/internal/storage/memory"
)

type complaintFixture struct {
	svc    *ComplaintService
	repos  *memory.Container
	pub    *mockPublisher
	people people
}

func newComplaintFixture(t *testing.T, store objectstore.Store) *complaintFixture {
	t.Helper()
	repos := memory.NewContainer()
	if store == nil {
		fs, err := objectstore.NewFileSystem(t.TempDir())
		require.NoError(t, err)
		store = fs
	}
	pub := newMockPublisher()

	svc := NewComplaintService(complaintRepos(repos), store, cache.Noop{}, pub)
	return &complaintFixture{svc: svc, repos: repos, pub: pub, people: seedPeople(t, repos)}
}

func complaintRepos(c *memory.Container) ComplaintRepositories {
	return ComplaintRepositories{
		Complaints:  c.Complaints(),
		Comments:    c.Comments(),
		Attachments: c.Attachments(),
		Residents:   c.Residents(),
	}
}

func (f *complaintFixture) file(t *testing.T) *complaint.Complaint {
	t.Helper()
	c, err := f.svc.Create(context.Background(), CreateComplaintRequest{
		Title:       "Water leak in bathroom",
		Description: "Water is dripping from the ceiling",
		Category:    complaint.CategoryMaintenance,
		Priority:    complaint.PriorityHigh,
	}, f.people.resident.UserID)
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestComplaintService_Create_CopiesLocationFromResident(t *testing.T) {
	f := newComplaintFixture(t, nil)

	c := f.file(t)

	assert.Equal(t, "A101", c.Apartment)
	assert.Equal(t, "Building A", c.Building)
	assert.Equal(t, complaint.StatusPending, c.Status)
	assert.Nil(t, c.ResolvedAt)
	assert.Equal(t, "resident@example.com", c.Author.Email)
	assert.Empty(t, c.Comments)
	assert.Empty(t, c.Attachments)

	events := f.pub.published(event.ComplaintCreated)
	require.Len(t, events, 1)
	snapshot := events[0].(event.ComplaintEvent)
	assert.Equal(t, c.ID.String(), snapshot.ID)
	assert.Equal(t, "A101", snapshot.Apartment)
	assert.Equal(t, "PENDING", snapshot.Status)
}

func TestComplaintService_Create_Validation(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateComplaintRequest
	}{
		{"short title", CreateComplaintRequest{Title: "Leak", Description: "Water dripping badly", Category: complaint.CategoryOther}},
		{"short description", CreateComplaintRequest{Title: "Water leak", Description: "drip", Category: complaint.CategoryOther}},
		{"bad category", CreateComplaintRequest{Title: "Water leak", Description: "Water dripping badly", Category: "PARKING"}},
		{"bad priority", CreateComplaintRequest{Title: "Water leak", Description: "Water dripping badly", Category: complaint.CategoryOther, Priority: "CRITICAL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req, f.people.resident.UserID)
			assert.ErrorIs(t, err, common.ErrBadRequest)
		})
	}

	c, err := f.svc.Create(ctx, CreateComplaintRequest{Title: "Water leak", Description: "Water dripping badly", Category: complaint.CategoryOther}, f.people.resident.UserID)
	require.NoError(t, err)
	assert.Equal(t, complaint.PriorityMedium, c.Priority)
}

func TestComplaintService_Create_RequiresResidentProfile(t *testing.T) {
	f := newComplaintFixture(t, nil)

	_, err := f.svc.Create(context.Background(), CreateComplaintRequest{
		Title: "Broken elevator", Description: "Elevator stuck on floor 3", Category: complaint.CategoryMaintenance,
	}, f.people.manager.UserID)

	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, f.pub.published(event.ComplaintCreated))
}

func TestComplaintService_Update_ResolvedAtInvariant(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	steps := []complaint.Patch{
		{Status: ptr(complaint.StatusInProgress)},
		{Status: ptr(complaint.StatusResolved)},
		{Title: ptr("Water leak fixed")},
		{Status: ptr(complaint.StatusPending)},
		{Status: ptr(complaint.StatusResolved)},
		{Status: ptr(complaint.StatusClosed)},
		{Priority: ptr(complaint.PriorityLow)},
	}

	for i, patch := range steps {
		got, err := f.svc.Update(ctx, c.ID, patch, f.people.manager)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, got.Status == complaint.StatusResolved, got.ResolvedAt != nil, "step %d status %s", i, got.Status)
	}

	assert.Len(t, f.pub.published(event.ComplaintUpdated), len(steps))
}

func TestComplaintService_Update_Authorization(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)
	patch := complaint.Patch{Priority: ptr(complaint.PriorityUrgent)}

	_, err := f.svc.Update(ctx, c.ID, patch, f.people.neighbor)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.Update(ctx, c.ID, patch, f.people.resident)
	assert.NoError(t, err)
	_, err = f.svc.Update(ctx, c.ID, patch, f.people.manager)
	assert.NoError(t, err)
	_, err = f.svc.Update(ctx, c.ID, patch, f.people.admin)
	assert.NoError(t, err)

	_, err = f.svc.Update(ctx, uuid.New(), patch, f.people.admin)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.Update(ctx, c.ID, complaint.Patch{Status: ptr(complaint.Status("DONE"))}, f.people.admin)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestComplaintService_Update_KeepsLocation(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	profile, err := f.repos.Residents().GetByUserID(ctx, f.people.resident.UserID)
	require.NoError(t, err)
	profile.Apartment = "Z999"
	require.NoError(t, f.repos.Residents().Update(ctx, profile))

	got, err := f.svc.Update(ctx, c.ID, complaint.Patch{Title: ptr("Water leak again")}, f.people.resident)
	require.NoError(t, err)
	assert.Equal(t, "A101", got.Apartment)
}

func TestComplaintService_Update_ConcurrentLastWriteWins(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	patches := []complaint.Patch{
		{Status: ptr(complaint.StatusInProgress)},
		{Priority: ptr(complaint.PriorityLow)},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(patches))
	for i, p := range patches {
		wg.Add(1)
		go func(i int, p complaint.Patch) {
			defer wg.Done()
			_, errs[i] = f.svc.Update(ctx, c.ID, p, f.people.manager)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	final, err := f.svc.FindOne(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, final.Status == complaint.StatusInProgress || final.Priority == complaint.PriorityLow)
	assert.Nil(t, final.ResolvedAt)
}

func TestComplaintService_Remove_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newComplaintFixture(t, nil)
	c := f.file(t)

	assert.ErrorIs(t, f.svc.Remove(ctx, c.ID, f.people.neighbor), common.ErrForbidden)
	assert.ErrorIs(t, f.svc.Remove(ctx, c.ID, f.people.manager), common.ErrForbidden)
	require.NoError(t, f.svc.Remove(ctx, c.ID, f.people.admin))

	_, err := f.svc.FindOne(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	deleted := f.pub.published(event.ComplaintDeleted)
	require.Len(t, deleted, 1)
	payload := deleted[0].(event.ComplaintDeletedEvent)
	assert.Equal(t, c.ID.String(), payload.ID)
	assert.Equal(t, f.people.resident.UserID.String(), payload.UserID)

	own := f.file(t)
	assert.NoError(t, f.svc.Remove(ctx, own.ID, f.people.resident))
}

func TestComplaintService_Remove_DeletesBlobs(t *testing.T) {
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Remove", mock.Anything, mock.Anything).Return(errors.New("disk gone"))

	f := newComplaintFixture(t, store)
	ctx := context.Background()
	c := f.file(t)

	a, err := f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "leak.jpg", Size: 3, MimeType: "image/jpeg", Reader: strings.NewReader("abc")}, f.people.resident.UserID)
	require.NoError(t, err)

	// blob removal failures are logged, the complaint is still deleted
	require.NoError(t, f.svc.Remove(ctx, c.ID, f.people.resident))
	store.AssertCalled(t, "Remove", mock.Anything, a.FilePath)

	_, err = f.repos.Attachments().GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestComplaintService_AddComment(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	_, err := f.svc.AddComment(ctx, c.ID, "   ", f.people.manager.UserID)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = f.svc.AddComment(ctx, uuid.New(), "hello", f.people.manager.UserID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	first, err := f.svc.AddComment(ctx, c.ID, "We will send a plumber", f.people.manager.UserID)
	require.NoError(t, err)
	assert.Equal(t, "manager@abc-apartment.com", first.Author.Email)

	// any authenticated user may comment
	_, err = f.svc.AddComment(ctx, c.ID, "Same issue here", f.people.neighbor.UserID)
	require.NoError(t, err)

	got, err := f.svc.FindOne(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "We will send a plumber", got.Comments[0].Content)
}

func TestComplaintService_FindOne_ReadThrough(t *testing.T) {
	repos := memory.NewContainer()
	pp := seedPeople(t, repos)
	c := &mockCache{}
	store, err := objectstore.NewFileSystem(t.TempDir())
	require.NoError(t, err)
	svc := NewComplaintService(complaintRepos(repos), store, c, bus.NewNullClient())
	ctx := context.Background()

	c.On("Set", mock.Anything, mock.Anything, mock.Anything, cache.DefaultTTL).Return()
	created, err := svc.Create(ctx, CreateComplaintRequest{
		Title: "Broken light", Description: "Hallway light is broken", Category: complaint.CategoryMaintenance,
	}, pp.resident.UserID)
	require.NoError(t, err)

	key := cache.ComplaintKey(created.ID)
	c.On("Get", mock.Anything, key, mock.Anything).Return(false).Once()

	got, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	c.AssertNumberOfCalls(t, "Set", 2)

	c.On("Get", mock.Anything, key, mock.Anything).Return(true).Once()
	_, err = svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	c.AssertNumberOfCalls(t, "Set", 2)

	c.On("Delete", mock.Anything, []string{key}).Return()
	_, err = svc.AddComment(ctx, created.ID, "any update?", pp.resident.UserID)
	require.NoError(t, err)
	c.AssertCalled(t, "Delete", mock.Anything, []string{key})
}

func TestComplaintService_UploadAttachment_KeyAndURL(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	content := []byte("fake-jpeg-bytes")
	a, err := f.svc.UploadAttachment(ctx, c.ID, FileUpload{
		Name: "leak.jpg", Size: int64(len(content)), MimeType: "image/jpeg", Reader: bytes.NewReader(content),
	}, f.people.resident.UserID)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^`+c.ID.String()+`/\d+_leak\.jpg$`), a.FilePath)
	assert.Equal(t, "/complaints/"+c.ID.String()+"/attachments/"+a.ID.String()+"/download", a.URL)
	assert.Equal(t, int64(len(content)), a.FileSize)

	meta, body, err := f.svc.OpenAttachment(ctx, c.ID, a.ID)
	require.NoError(t, err)
	defer body.Close()
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "image/jpeg", meta.MimeType)

	list, err := f.svc.ListAttachments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.URL, list[0].URL)

	_, err = f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "empty.txt"}, f.people.resident.UserID)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestComplaintService_UploadAttachment_StoreFailureCreatesNoRow(t *testing.T) {
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	f := newComplaintFixture(t, store)
	ctx := context.Background()
	c := f.file(t)

	_, err := f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "a.pdf", Size: 1, Reader: strings.NewReader("x")}, f.people.resident.UserID)
	require.Error(t, err)

	list, err := f.svc.ListAttachments(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type failingAttachments struct {
	complaint.AttachmentRepository
}

func (failingAttachments) Create(context.Context, *complaint.Attachment) error {
	return errors.New("insert failed")
}

func TestComplaintService_UploadAttachment_MetadataFailureRemovesBlob(t *testing.T) {
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "application/octet-stream").Return(nil)
	store.On("Remove", mock.Anything, mock.Anything).Return(nil)

	repos := memory.NewContainer()
	pp := seedPeople(t, repos)
	r := complaintRepos(repos)
	r.Attachments = failingAttachments{repos.Attachments()}
	svc := NewComplaintService(r, store, cache.Noop{}, newMockPublisher())
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateComplaintRequest{
		Title: "Broken light", Description: "Hallway light is broken", Category: complaint.CategoryMaintenance,
	}, pp.resident.UserID)
	require.NoError(t, err)

	_, err = svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "a.bin", Size: 1, Reader: strings.NewReader("x")}, pp.resident.UserID)
	require.Error(t, err)

	putKey := store.Calls[0].Arguments.String(1)
	store.AssertCalled(t, "Remove", mock.Anything, putKey)
}

func TestComplaintService_DeleteAttachment_Twice(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	a, err := f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "leak.jpg", Size: 3, Reader: strings.NewReader("abc")}, f.people.resident.UserID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAttachment(ctx, c.ID, a.ID, f.people.resident))
	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, c.ID, a.ID, f.people.resident), common.ErrNotFound)

	_, _, err = f.svc.OpenAttachment(ctx, c.ID, a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestComplaintService_DeleteAttachment_Rules(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)
	other := f.file(t)

	a, err := f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "leak.jpg", Size: 3, Reader: strings.NewReader("abc")}, f.people.resident.UserID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, c.ID, a.ID, f.people.neighbor), common.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, other.ID, a.ID, f.people.admin), common.ErrNotFound)
	_, err = f.svc.GetAttachment(ctx, other.ID, a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.NoError(t, f.svc.DeleteAttachment(ctx, c.ID, a.ID, f.people.manager))
}

func TestComplaintService_Stats(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()

	statuses := []complaint.Status{
		complaint.StatusPending,
		complaint.StatusPending,
		complaint.StatusInProgress,
		complaint.StatusResolved,
		complaint.StatusClosed,
	}
	for _, st := range statuses {
		c := f.file(t)
		if st != complaint.StatusPending {
			_, err := f.svc.Update(ctx, c.ID, complaint.Patch{Status: ptr(st)}, f.people.admin)
			require.NoError(t, err)
		}
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &complaint.Stats{Total: 5, Pending: 2, InProgress: 1, Resolved: 1, Closed: 1}, stats)

	served, err := f.svc.ServeStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, stats, served)
}

func TestComplaintService_FindAllAndByUser(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()

	first := f.file(t)
	time.Sleep(time.Millisecond)
	second := f.file(t)
	_, err := f.svc.Update(ctx, second.ID, complaint.Patch{Status: ptr(complaint.StatusInProgress)}, f.people.admin)
	require.NoError(t, err)

	all, err := f.svc.FindAll(ctx, complaint.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	pending, err := f.svc.FindAll(ctx, complaint.Filter{}.WithStatus(complaint.StatusPending))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mine, err := f.svc.FindByUser(ctx, f.people.resident.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.svc.FindByUser(ctx, f.people.neighbor.UserID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestComplaintService_NullBus(t *testing.T) {
	repos := memory.NewContainer()
	pp := seedPeople(t, repos)
	store, err := objectstore.NewFileSystem(t.TempDir())
	require.NoError(t, err)
	svc := NewComplaintService(complaintRepos(repos), store, cache.Noop{}, bus.NewNullClient())

	c, err := svc.Create(context.Background(), CreateComplaintRequest{
		Title: "Noisy neighbors", Description: "Loud music late at night", Category: complaint.CategoryNoise,
	}, pp.resident.UserID)
	require.NoError(t, err)
	assert.NoError(t, svc.Remove(context.Background(), c.ID, pp.resident))
}

func TestComplaintService_ChildChangesPublishActor(t *testing.T) {
	f := newComplaintFixture(t, nil)
	ctx := context.Background()
	c := f.file(t)

	_, err := f.svc.Update(ctx, c.ID, complaint.Patch{Status: ptr(complaint.StatusInProgress)}, f.people.manager)
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, c.ID, "Plumber booked for Monday", f.people.manager.UserID)
	require.NoError(t, err)
	_, err = f.svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "leak.jpg", Size: 3, Reader: strings.NewReader("abc")}, f.people.resident.UserID)
	require.NoError(t, err)

	published := f.pub.published(event.ComplaintUpdated)
	require.Len(t, published, 3)

	want := []struct {
		actor  uuid.UUID
		change event.Change
	}{
		{f.people.manager.UserID, event.ChangeFields},
		{f.people.manager.UserID, event.ChangeComment},
		{f.people.resident.UserID, event.ChangeAttachment},
	}
	for i, w := range want {
		e, ok := published[i].(event.ComplaintEvent)
		require.True(t, ok, "event %d", i)
		assert.Equal(t, w.actor.String(), e.ActorID, "event %d", i)
		assert.Equal(t, w.change, e.Change, "event %d", i)
		assert.Equal(t, string(complaint.StatusInProgress), e.Status, "event %d", i)
	}
}

type failingDelete struct {
	complaint.Repository
}

func (failingDelete) Delete(context.Context, uuid.UUID) error {
	return errors.New("delete failed")
}

func TestComplaintService_Remove_DeletesRowsBeforeBlobs(t *testing.T) {
	repos := memory.NewContainer()
	pp := seedPeople(t, repos)
	ctx := context.Background()

	setup := func(t *testing.T, r ComplaintRepositories) (*ComplaintService, *mockStore, *complaint.Complaint) {
		t.Helper()
		store := &mockStore{}
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		svc := NewComplaintService(r, store, cache.Noop{}, newMockPublisher())
		c, err := svc.Create(ctx, CreateComplaintRequest{
			Title: "Broken light", Description: "Hallway light is broken", Category: complaint.CategoryMaintenance,
		}, pp.resident.UserID)
		require.NoError(t, err)
		_, err = svc.UploadAttachment(ctx, c.ID, FileUpload{Name: "a.bin", Size: 1, Reader: strings.NewReader("x")}, pp.resident.UserID)
		require.NoError(t, err)
		return svc, store, c
	}

	t.Run("row delete fails", func(t *testing.T) {
		r := complaintRepos(repos)
		r.Complaints = failingDelete{repos.Complaints()}
		svc, store, c := setup(t, r)
		store.On("Remove", mock.Anything, mock.Anything).Return(nil)

		require.Error(t, svc.Remove(ctx, c.ID, pp.admin))
		store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)

		_, err := repos.Complaints().GetByID(ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("blobs after rows", func(t *testing.T) {
		svc, store, c := setup(t, complaintRepos(repos))
		store.On("Remove", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			_, err := repos.Complaints().GetByID(ctx, c.ID)
			assert.ErrorIs(t, err, common.ErrNotFound)
		}).Return(errors.New("bucket unavailable"))

		require.NoError(t, svc.Remove(ctx, c.ID, pp.admin))
		store.AssertNumberOfCalls(t, "Remove", 1)
	})
}
