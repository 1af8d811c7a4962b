package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	tokenserrors "vetslots/internal/tokens/errors"
	"vetslots/pkg/config"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"
)

// memoryTokenRepository increments under a mutex, which is the guarantee the
// store's single-document upsert gives.
type memoryTokenRepository struct {
	mu       sync.Mutex
	counts   map[model.TokenKey]int64
	expiries map[model.TokenKey]time.Time
	races    int
	err      error
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{
		counts:   make(map[model.TokenKey]int64),
		expiries: make(map[model.TokenKey]time.Time),
	}
}

func (m *memoryTokenRepository) Increment(ctx context.Context, key model.TokenKey, expireAt, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.races > 0 {
		m.races--
		return 0, tokenserrors.ErrCounterRace
	}
	if _, ok := m.counts[key]; !ok {
		m.expiries[key] = expireAt
	}
	m.counts[key]++
	return m.counts[key], nil
}

func newTestSequencer(repo *memoryTokenRepository, attempts int) TokenSequencer {
	cfg := &config.Config{Log: logger.Discard(), TokenMaxAttempts: attempts}
	return NewTokenSequencer(repo, cfg, func() time.Time {
		return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	})
}

func TestNext_StartsAtOneAndIncrements(t *testing.T) {
	repo := newMemoryTokenRepository()
	seq := newTestSequencer(repo, 3)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, "hosp-1", "2025-03-13", model.ChannelStandard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	key := model.TokenKey{HospitalID: "hosp-1", AppointmentDate: "2025-03-13", Channel: model.ChannelStandard}
	wantExpiry := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !repo.expiries[key].Equal(wantExpiry) {
		t.Errorf("expire_at = %v, want %v", repo.expiries[key], wantExpiry)
	}
}

func TestNext_ConcurrentCallersGetDistinctTokens(t *testing.T) {
	repo := newMemoryTokenRepository()
	seq := newTestSequencer(repo, 3)

	const callers = 50
	results := make([]int64, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			n, err := seq.Next(context.Background(), "hosp-1", "2025-03-13", model.ChannelStandard)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = n
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, n := range results {
		if n != int64(i+1) {
			t.Fatalf("sorted tokens[%d] = %d, want %d", i, n, i+1)
		}
	}
}

func TestNext_KeysAreIndependent(t *testing.T) {
	repo := newMemoryTokenRepository()
	seq := newTestSequencer(repo, 3)
	ctx := context.Background()

	calls := []struct {
		hospital string
		date     string
		channel  model.BookingChannel
		want     int64
	}{
		{"hosp-1", "2025-03-13", model.ChannelStandard, 1},
		{"hosp-1", "2025-03-13", model.ChannelEmergency, 1},
		{"hosp-1", "2025-03-13", model.ChannelStandard, 2},
		{"hosp-1", "2025-03-14", model.ChannelStandard, 1},
		{"hosp-2", "2025-03-13", model.ChannelStandard, 1},
		{"hosp-1", "2025-03-13", model.ChannelEmergency, 2},
		{"hosp-1", "2025-03-13", "", 3},
	}
	for i, c := range calls {
		got, err := seq.Next(ctx, c.hospital, c.date, c.channel)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != c.want {
			t.Errorf("call %d (%s %s %s) = %d, want %d", i, c.hospital, c.date, c.channel, got, c.want)
		}
	}
}

func TestNext_RetriesUpsertRace(t *testing.T) {
	repo := newMemoryTokenRepository()
	repo.races = 2
	seq := newTestSequencer(repo, 3)

	got, err := seq.Next(context.Background(), "hosp-1", "2025-03-13", model.ChannelStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("Next() = %d, want 1", got)
	}

	repo.races = 5
	_, err = seq.Next(context.Background(), "hosp-1", "2025-03-13", model.ChannelStandard)
	if !apperrors.HasCode(err, apperrors.CodeTransientStore) {
		t.Errorf("expected transient error after exhausting retries, got %v", err)
	}
}

func TestNext_Errors(t *testing.T) {
	repo := newMemoryTokenRepository()
	seq := newTestSequencer(repo, 3)
	ctx := context.Background()

	if _, err := seq.Next(ctx, "", "2025-03-13", model.ChannelStandard); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("empty hospital: got %v", err)
	}
	if _, err := seq.Next(ctx, "hosp-1", "13-03-2025", model.ChannelStandard); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("bad date: got %v", err)
	}

	repo.err = errors.New("write failed")
	if _, err := seq.Next(ctx, "hosp-1", "2025-03-13", model.ChannelStandard); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("store failure: got %v", err)
	}
}

func TestMint(t *testing.T) {
	repo := newMemoryTokenRepository()
	seq := newTestSequencer(repo, 3)
	ctx := context.Background()

	hospital := &model.Hospital{ID: "hosp-1", BusinessName: ""}
	token, err := seq.Mint(ctx, hospital, "2025-03-13", model.ChannelStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "XX001-2025-03-13" {
		t.Errorf("token = %s, want XX001-2025-03-13", token)
	}

	hospital = &model.Hospital{ID: "hosp-2", BusinessName: "city pet care"}
	token, err = seq.Mint(ctx, hospital, "2025-03-13", model.ChannelEmergency)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "CPC-EM-001-2025-03-13" {
		t.Errorf("token = %s, want CPC-EM-001-2025-03-13", token)
	}

	if _, err := seq.Mint(ctx, nil, "2025-03-13", model.ChannelStandard); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("nil hospital: got %v", err)
	}
}

func TestHospitalInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "XX"},
		{"   ", "XX"},
		{"Happy Paws Clinic", "HPC"},
		{"  happy   paws ", "HP"},
		{"Élan Vet", "ÉV"},
	}
	for _, tt := range tests {
		if got := HospitalInitials(tt.name); got != tt.want {
			t.Errorf("HospitalInitials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatToken(t *testing.T) {
	tests := []struct {
		seq     int64
		channel model.BookingChannel
		want    string
	}{
		{1, model.ChannelStandard, "XX001-2025-03-13"},
		{12, model.ChannelStandard, "XX0012-2025-03-13"},
		{3, model.ChannelEmergency, "XX-EM-003-2025-03-13"},
	}
	for _, tt := range tests {
		if got := FormatToken("XX", tt.seq, "2025-03-13", tt.channel); got != tt.want {
			t.Errorf("FormatToken(%d, %s) = %s, want %s", tt.seq, tt.channel, got, tt.want)
		}
	}
}
