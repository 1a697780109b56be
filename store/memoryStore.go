package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PrayerWall/models"
)

// MemoryStore is the fallback backend: process-lifetime maps guarded by a
// mutex. Nothing survives a restart. It exists so the site keeps working
// when Postgres is unreachable at startup.
type MemoryStore struct {
	mu sync.RWMutex

	comments map[string]memoryRecord[models.Comment]
	prayers  map[string]memoryRecord[models.PrayerRequest]

	// seq breaks ordering ties between records created within the same
	// clock tick.
	seq int64
}

type memoryRecord[T any] struct {
	value T
	seq   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[string]memoryRecord[models.Comment]),
		prayers:  make(map[string]memoryRecord[models.PrayerRequest]),
	}
}

func (s *MemoryStore) Durable() bool { return false }

func (s *MemoryStore) CreateComment(_ context.Context, in models.CommentCreate) (models.Comment, error) {
	in.Normalize()
	if err := validateComment(in); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		Author:    in.Author,
		Text:      in.Text,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.comments[comment.ID] = memoryRecord[models.Comment]{value: comment, seq: s.seq}
	return comment, nil
}

func (s *MemoryStore) GetComment(_ context.Context, id string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return rec.value, nil
}

func (s *MemoryStore) ListComments(_ context.Context, limit int) ([]models.Comment, error) {
	s.mu.RLock()
	recs := make([]memoryRecord[models.Comment], 0, len(s.comments))
	for _, rec := range s.comments {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.value.Timestamp.Equal(b.value.Timestamp) {
			return a.value.Timestamp.After(b.value.Timestamp)
		}
		return a.seq > b.seq
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	comments := make([]models.Comment, len(recs))
	for i, rec := range recs {
		comments[i] = rec.value
	}
	return comments, nil
}

func (s *MemoryStore) DeleteComment(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	delete(s.comments, id)
	return rec.value, nil
}

func (s *MemoryStore) CreatePrayerRequest(_ context.Context, in models.PrayerRequestCreate) (models.PrayerRequest, error) {
	in.Normalize()
	if err := validatePrayerRequestText(in.Request); err != nil {
		return models.PrayerRequest{}, err
	}

	now := time.Now().UTC()
	prayer := models.PrayerRequest{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Request:     in.Request,
		IsAnonymous: in.IsAnonymous,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.prayers[prayer.ID] = memoryRecord[models.PrayerRequest]{value: prayer, seq: s.seq}
	return prayer, nil
}

func (s *MemoryStore) GetPrayerRequest(_ context.Context, id string) (models.PrayerRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.prayers[id]
	if !ok {
		return models.PrayerRequest{}, ErrNotFound
	}
	return rec.value, nil
}

func (s *MemoryStore) ListPrayerRequests(_ context.Context) ([]models.PrayerRequest, error) {
	s.mu.RLock()
	recs := make([]memoryRecord[models.PrayerRequest], 0, len(s.prayers))
	for _, rec := range s.prayers {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.value.CreatedAt.Equal(b.value.CreatedAt) {
			return a.value.CreatedAt.After(b.value.CreatedAt)
		}
		return a.seq > b.seq
	})

	prayers := make([]models.PrayerRequest, len(recs))
	for i, rec := range recs {
		prayers[i] = rec.value
	}
	return prayers, nil
}

func (s *MemoryStore) UpdatePrayerRequest(_ context.Context, id string, patch models.PrayerRequestUpdate) (models.PrayerRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.prayers[id]
	if !ok {
		return models.PrayerRequest{}, ErrNotFound
	}

	updated := patch.Apply(rec.value)
	if err := validatePrayerRequestText(updated.Request); err != nil {
		return models.PrayerRequest{}, err
	}
	if err := validateStatus(updated.Status); err != nil {
		return models.PrayerRequest{}, err
	}
	updated.UpdatedAt = time.Now().UTC()

	rec.value = updated
	s.prayers[id] = rec
	return updated, nil
}

func (s *MemoryStore) DeletePrayerRequest(_ context.Context, id string) (models.PrayerRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.prayers[id]
	if !ok {
		return models.PrayerRequest{}, ErrNotFound
	}
	delete(s.prayers, id)
	return rec.value, nil
}

func (s *MemoryStore) DeleteAllPrayerRequests(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(len(s.prayers))
	s.prayers = make(map[string]memoryRecord[models.PrayerRequest])
	return count, nil
}

func (s *MemoryStore) CountPrayerRequests(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.prayers)), nil
}

// SeedSampleData loads a few starter prayer requests so a fallback instance
// is not an empty wall. Never used against the durable backend.
func (s *MemoryStore) SeedSampleData() {
	samples := []models.PrayerRequestCreate{
		{
			Name:    "Sarah M.",
			Request: "Please pray for my brother's recovery from surgery. May God give him strength and healing.",
		},
		{
			IsAnonymous: true,
			Request:     "Praying for peace and guidance during this difficult season in our family.",
		},
		{
			Name:    "Michael T.",
			Request: "Please lift up our church leadership as they make important decisions for our community.",
		},
	}
	for _, sample := range samples {
		if _, err := s.CreatePrayerRequest(context.Background(), sample); err != nil {
			// Samples are static and always valid; nothing to handle.
			continue
		}
	}
}
