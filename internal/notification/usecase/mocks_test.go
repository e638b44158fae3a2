package usecase

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/clock"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/idempotency"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/jwt"
	"github.com/shandysiswandi/notifyd/internal/pkg/locker"
	"github.com/shandysiswandi/notifyd/internal/pkg/validator"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Add(1) }

type seqToken struct{ n atomic.Int64 }

func (s *seqToken) Generate() string { return "tok-" + strconv.FormatInt(s.n.Add(1), 10) }

type prefKey struct {
	userID int64
	typ    entity.EventType
}

type threadKey struct {
	entity     entity.EntityRef
	chatUserID string
}

// fakeRepo is an in-memory repoDB. Errors can be injected per method name.
type fakeRepo struct {
	mu sync.Mutex

	prefs        map[prefKey]entity.Preference
	records      map[int64]*entity.Record
	deleted      map[int64]bool
	digest       []entity.DigestItem
	batches      []entity.ChatBatchItem
	threads      map[threadKey]entity.ThreadLink
	recipients   map[int64]entity.Recipient
	integrations map[entity.IntegrationProvider]entity.Integration

	fail        map[string]error
	failPrefFor map[int64]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		prefs:        map[prefKey]entity.Preference{},
		records:      map[int64]*entity.Record{},
		deleted:      map[int64]bool{},
		threads:      map[threadKey]entity.ThreadLink{},
		recipients:   map[int64]entity.Recipient{},
		integrations: map[entity.IntegrationProvider]entity.Integration{},
		fail:         map[string]error{},
		failPrefFor:  map[int64]error{},
	}
}

func (f *fakeRepo) GetPreference(_ context.Context, userID int64, typ entity.EventType) (*entity.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPrefFor[userID]; err != nil {
		return nil, err
	}
	if err := f.fail["GetPreference"]; err != nil {
		return nil, err
	}
	p, ok := f.prefs[prefKey{userID, typ}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

func (f *fakeRepo) ListPreferences(_ context.Context, userID int64) ([]entity.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Preference{}
	for k, p := range f.prefs {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	return out, f.fail["ListPreferences"]
}

func (f *fakeRepo) UpsertPreference(_ context.Context, p entity.Preference, force bool, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["UpsertPreference"]; err != nil {
		return false, err
	}
	key := prefKey{p.UserID, p.Type}
	if cur, ok := f.prefs[key]; ok && cur.IsLocked && !force {
		return false, nil
	}
	f.prefs[key] = p
	return true, nil
}

func (f *fakeRepo) UnlockPreference(_ context.Context, userID int64, typ entity.EventType, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := prefKey{userID, typ}
	p, ok := f.prefs[key]
	if !ok {
		return false, nil
	}
	p.IsLocked = false
	p.LockedBy = nil
	p.LockedAt = nil
	f.prefs[key] = p
	return true, nil
}

func (f *fakeRepo) InsertDefaultPreferences(_ context.Context, prefs []entity.Preference, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range prefs {
		key := prefKey{p.UserID, p.Type}
		if _, ok := f.prefs[key]; ok {
			continue
		}
		f.prefs[key] = p
		n++
	}
	return n, nil
}

func (f *fakeRepo) CreateRecord(_ context.Context, r entity.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["CreateRecord"]; err != nil {
		return err
	}
	f.records[r.ID] = &r
	return nil
}

func (f *fakeRepo) FindLatestUnreadByBundleKey(_ context.Context, key entity.BundleKey, since time.Time) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *entity.Record
	for _, r := range f.records {
		if r.UserID != key.RecipientID || r.BundleKey != key.Key || r.IsRead || f.deleted[r.ID] || r.UpdatedAt.Before(since) {
			continue
		}
		if best == nil || r.UpdatedAt.After(best.UpdatedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, goerror.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeRepo) BumpBundle(_ context.Context, id int64, prevCount int32, title string, now time.Time) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.IsRead || f.deleted[id] || r.BundleCount != prevCount {
		return nil, goerror.ErrNotFound
	}
	r.BundleCount++
	r.Title = title
	r.UpdatedAt = now
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) MarkEmailDelivered(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		r.EmailDelivered = true
		r.EmailDeliveredAt = &at
	}
	return nil
}

func (f *fakeRepo) MarkChatDelivered(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		r.ChatDelivered = true
		r.ChatDeliveredAt = &at
	}
	return nil
}

func (f *fakeRepo) visible(userID int64, unreadOnly bool) []entity.Record {
	out := []entity.Record{}
	for _, r := range f.records {
		if r.UserID != userID || f.deleted[r.ID] || (unreadOnly && r.IsRead) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (f *fakeRepo) ListRecords(_ context.Context, userID int64, unreadOnly bool, limit, offset int32) ([]entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.visible(userID, unreadOnly)
	if int(offset) >= len(all) {
		return []entity.Record{}, nil
	}
	end := min(int(offset+limit), len(all))
	return all[offset:end], nil
}

func (f *fakeRepo) CountRecords(_ context.Context, userID int64, unreadOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.visible(userID, unreadOnly))), nil
}

func (f *fakeRepo) MarkRecordRead(_ context.Context, userID, id int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.UserID != userID || f.deleted[id] {
		return false, nil
	}
	r.IsRead = true
	r.ReadAt = &now
	return true, nil
}

func (f *fakeRepo) MarkAllRecordsRead(_ context.Context, userID int64, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.UserID == userID && !r.IsRead && !f.deleted[r.ID] {
			r.IsRead = true
			r.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) SoftDeleteRecord(_ context.Context, userID, id int64, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.UserID != userID || f.deleted[id] {
		return false, nil
	}
	f.deleted[id] = true
	return true, nil
}

func (f *fakeRepo) CreateDigestItem(_ context.Context, item entity.DigestItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["CreateDigestItem"]; err != nil {
		return err
	}
	f.digest = append(f.digest, item)
	return nil
}

func (f *fakeRepo) ListPendingDigestItems(context.Context) ([]entity.DigestItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.DigestItem{}
	for _, d := range f.digest {
		if !d.Processed {
			out = append(out, d)
		}
	}
	return out, f.fail["ListPendingDigestItems"]
}

func (f *fakeRepo) MarkDigestItemsProcessed(_ context.Context, ids []int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.digest {
		if slices.Contains(ids, f.digest[i].ID) && !f.digest[i].Processed {
			f.digest[i].Processed = true
			f.digest[i].ProcessedAt = &now
		}
	}
	return nil
}

func (f *fakeRepo) DeleteProcessedDigestItemsBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.digest[:0]
	var n int64
	for _, d := range f.digest {
		if d.Processed && d.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	f.digest = kept
	return n, nil
}

func (f *fakeRepo) FindOpenBatchReadyAt(_ context.Context, key entity.BatchKey) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.batches {
		if b.Key == key && !b.Processed {
			return b.BatchReadyAt, nil
		}
	}
	return time.Time{}, goerror.ErrNotFound
}

func (f *fakeRepo) CreateChatBatchItem(_ context.Context, item entity.ChatBatchItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["CreateChatBatchItem"]; err != nil {
		return err
	}
	f.batches = append(f.batches, item)
	return nil
}

func (f *fakeRepo) ListReadyChatBatchItems(_ context.Context, now time.Time) ([]entity.ChatBatchItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.ChatBatchItem{}
	for _, b := range f.batches {
		if !b.Processed && !b.BatchReadyAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkChatBatchItemsProcessed(_ context.Context, ids []int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.batches {
		if slices.Contains(ids, f.batches[i].ID) && !f.batches[i].Processed {
			f.batches[i].Processed = true
			f.batches[i].ProcessedAt = &now
		}
	}
	return nil
}

func (f *fakeRepo) DeleteProcessedChatBatchItemsBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.batches[:0]
	var n int64
	for _, b := range f.batches {
		if b.Processed && b.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, b)
	}
	f.batches = kept
	return n, nil
}

func (f *fakeRepo) UpsertThreadLink(_ context.Context, link entity.ThreadLink, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[threadKey{link.Entity, link.ChatUserID}] = link
	return nil
}

func (f *fakeRepo) FindThreadLink(_ context.Context, channelID, messageTs string) (*entity.ThreadLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.threads {
		if l.ChannelID == channelID && l.MessageTs == messageTs {
			cp := l
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) GetRecipient(_ context.Context, userID int64) (*entity.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRepo) GetRecipientByChatUserID(_ context.Context, chatUserID string) (*entity.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipients {
		if r.ChatUserID == chatUserID {
			cp := r
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) UpsertRecipient(_ context.Context, r entity.Recipient, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.recipients[r.UserID]; ok && r.ChatUserID == "" {
		r.ChatUserID = cur.ChatUserID
	}
	f.recipients[r.UserID] = r
	return nil
}

func (f *fakeRepo) SetRecipientChatUserID(_ context.Context, userID int64, chatUserID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.recipients[userID]
	r.ChatUserID = chatUserID
	f.recipients[userID] = r
	return nil
}

func (f *fakeRepo) GetIntegration(_ context.Context, provider entity.IntegrationProvider) (*entity.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetIntegration"]; err != nil {
		return nil, err
	}
	in, ok := f.integrations[provider]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &in, nil
}

func (f *fakeRepo) UpsertIntegration(_ context.Context, in entity.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.integrations[in.Provider] = in
	return nil
}

func (f *fakeRepo) recordsOf(userID int64) []entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible(userID, false)
}

type mockEmail struct{ mock.Mock }

func (m *mockEmail) Configure(settings entity.EmailSettings) { m.Called(settings) }

func (m *mockEmail) Enabled() bool { return m.Called().Bool(0) }

func (m *mockEmail) SendImmediate(ctx context.Context, to entity.Recipient, evt entity.Event) error {
	return m.Called(ctx, to, evt).Error(0)
}

func (m *mockEmail) SendDigest(ctx context.Context, to entity.Recipient, items []entity.DigestItem) error {
	return m.Called(ctx, to, items).Error(0)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) Configure(settings entity.ChatSettings) { m.Called(settings) }

func (m *mockChat) Enabled() bool { return m.Called().Bool(0) }

func (m *mockChat) SendDirect(ctx context.Context, chatUserID string, evt entity.Event) (entity.ChatLocator, error) {
	args := m.Called(ctx, chatUserID, evt)
	return args.Get(0).(entity.ChatLocator), args.Error(1)
}

func (m *mockChat) SendBatch(ctx context.Context, chatUserID string, items []entity.ChatBatchItem) error {
	return m.Called(ctx, chatUserID, items).Error(0)
}

func (m *mockChat) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockChat) TestConnection(ctx context.Context) (entity.ChatConnection, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.ChatConnection), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishChatReply(ctx context.Context, msg event.NotificationChatReplyMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type testDeps struct {
	uc     *Usecase
	repo   *fakeRepo
	email  *mockEmail
	chat   *mockChat
	pub    *mockPublisher
	clock  *clock.Fixed
	locker *locker.Locker
	redis  *miniredis.Miniredis
}

func newTestUsecase(t *testing.T) *testDeps {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	require.NoError(t, RegisterValidations(v))

	d := &testDeps{
		repo:   newFakeRepo(),
		email:  &mockEmail{},
		chat:   &mockChat{},
		pub:    &mockPublisher{},
		clock:  clock.NewFixed(testNow),
		locker: locker.New(rdb, &seqToken{}),
		redis:  mr,
	}
	d.uc = NewNotification(Dependency{
		RepoDB:      d.repo,
		Email:       d.email,
		Chat:        d.chat,
		Publisher:   d.pub,
		Locker:      d.locker,
		Idempotency: idempotency.New(rdb),
		UID:         &seqID{},
		Clock:       d.clock,
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	t.Cleanup(func() {
		d.email.AssertExpectations(t)
		d.chat.AssertExpectations(t)
		d.pub.AssertExpectations(t)
	})

	return d
}

func authed(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}
