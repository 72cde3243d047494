package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firewatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func fire(id string, brightness float64) model.FireRecord {
	return model.FireRecord{
		ID:         id,
		Latitude:   10,
		Longitude:  20,
		Brightness: brightness,
		Confidence: 50,
		AcqDate:    "2025-08-01",
		Satellite:  "MODIS",
		UpdatedAt:  time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceAll(ctx, []model.FireRecord{fire("a", 300)})
	require.NoError(t, err)

	require.NoError(t, st.Migrate(ctx))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "migrate must not touch existing rows")
}

func TestSQLite_CountEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	recs, err := st.TopByIntensity(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	pts, err := st.AllPoints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestSQLite_ReplaceAll_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	in := fire("38.120_-120.990_2025-08-01", 331.5)
	in.Latitude = 38.12
	in.Longitude = -120.99
	in.Satellite = "Terra"

	stored, err := st.ReplaceAll(ctx, []model.FireRecord{in})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	recs, err := st.TopByIntensity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got := recs[0]
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.Latitude, got.Latitude)
	assert.Equal(t, in.Longitude, got.Longitude)
	assert.Equal(t, in.Brightness, got.Brightness)
	assert.Equal(t, in.Confidence, got.Confidence)
	assert.Equal(t, in.AcqDate, got.AcqDate)
	assert.Equal(t, in.Satellite, got.Satellite)
	assert.True(t, in.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSQLite_ReplaceAll_DiscardsPriorSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceAll(ctx, []model.FireRecord{fire("a", 1), fire("b", 2), fire("c", 3)})
	require.NoError(t, err)

	stored, err := st.ReplaceAll(ctx, []model.FireRecord{fire("d", 4)})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	recs, err := st.TopByIntensity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d", recs[0].ID)
}

func TestSQLite_ReplaceAll_DuplicateIDsKeepLast(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	stored, err := st.ReplaceAll(ctx, []model.FireRecord{fire("dup", 300), fire("other", 310), fire("dup", 350)})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := st.TopByIntensity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "dup", recs[0].ID)
	assert.Equal(t, 350.0, recs[0].Brightness)
}

func TestSQLite_ReplaceAll_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceAll(ctx, []model.FireRecord{fire("a", 1)})
	require.NoError(t, err)

	stored, err := st.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, stored)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ReplaceAll_FailureKeepsPriorSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceAll(ctx, []model.FireRecord{fire("old-1", 300), fire("old-2", 310)})
	require.NoError(t, err)

	// SQLite stores NaN as NULL, which violates the NOT NULL constraint
	// on the second insert.
	bad := fire("new-2", 0)
	bad.Latitude = math.NaN()
	_, err = st.ReplaceAll(ctx, []model.FireRecord{fire("new-1", 400), bad, fire("new-3", 500)})
	require.Error(t, err)

	recs, err := st.TopByIntensity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "old-2", recs[0].ID)
	assert.Equal(t, "old-1", recs[1].ID)
}

func TestSQLite_ReplaceAll_CanceledContext(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.ReplaceAll(context.Background(), []model.FireRecord{fire("keep", 1)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.ReplaceAll(ctx, []model.FireRecord{fire("new", 2)})
	require.Error(t, err)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_ReplaceAll_ZeroUpdatedAtIsStamped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := fire("a", 1)
	rec.UpdatedAt = time.Time{}
	_, err := st.ReplaceAll(ctx, []model.FireRecord{rec})
	require.NoError(t, err)

	recs, err := st.TopByIntensity(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].UpdatedAt.IsZero())
}

func TestSQLite_TopByIntensity_Order(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceAll(ctx, []model.FireRecord{
		fire("low", 300),
		fire("high", 450),
		fire("tie-first", 400),
		fire("mid", 350),
		fire("tie-second", 400),
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all rows", limit: 0, want: []string{"high", "tie-first", "tie-second", "mid", "low"}},
		{name: "negative limit means all", limit: -1, want: []string{"high", "tie-first", "tie-second", "mid", "low"}},
		{name: "limit 2", limit: 2, want: []string{"high", "tie-first"}},
		{name: "limit larger than rows", limit: 50, want: []string{"high", "tie-first", "tie-second", "mid", "low"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := st.TopByIntensity(ctx, tt.limit)
			require.NoError(t, err)

			ids := make([]string, len(recs))
			for i, r := range recs {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.want, ids)

			for i := 1; i < len(recs); i++ {
				assert.GreaterOrEqual(t, recs[i-1].Brightness, recs[i].Brightness)
			}
		})
	}
}

func TestSQLite_AllPoints(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := fire("a", 300)
	a.Latitude, a.Longitude, a.Confidence = 39.5, -119.8, 90
	b := fire("b", 320)
	b.Latitude, b.Longitude, b.Confidence = 34.0, -118.2, 40

	_, err := st.ReplaceAll(ctx, []model.FireRecord{a, b})
	require.NoError(t, err)

	pts, err := st.AllPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.FirePoint{
		{Latitude: 39.5, Longitude: -119.8, Brightness: 300, Confidence: 90},
		{Latitude: 34.0, Longitude: -118.2, Brightness: 320, Confidence: 40},
	}, pts)
}

func TestSQLite_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch := func(prefix string, n int) []model.FireRecord {
		recs := make([]model.FireRecord, n)
		for i := range recs {
			recs[i] = fire(fmt.Sprintf("%s-%d", prefix, i), float64(i))
		}
		return recs
	}
	small, large := batch("s", 3), batch("l", 40)

	_, err := st.ReplaceAll(ctx, small)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			next := large
			if i%2 == 1 {
				next = small
			}
			if _, err := st.ReplaceAll(ctx, next); err != nil {
				select {
				case errs <- err:
				default:
				}
				break
			}
		}
		close(stop)
	}()

	var observed []int
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
			n, err := st.Count(ctx)
			require.NoError(t, err)
			observed = append(observed, n)
		}
	}
	wg.Wait()

	select {
	case err := <-errs:
		require.NoError(t, err)
	default:
	}

	for _, n := range observed {
		assert.Contains(t, []int{len(small), len(large)}, n)
	}
}

func TestSQLite_ConcurrentWritersWait(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	const writers, rounds = 8, 5
	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds*2)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			recs := []model.FireRecord{fire(fmt.Sprintf("w%d-a", w), 300), fire(fmt.Sprintf("w%d-b", w), 310)}
			for i := 0; i < rounds; i++ {
				if _, err := st.ReplaceAll(ctx, recs); err != nil {
					errs <- err
				}
				if _, err := st.Count(ctx); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain path", in: "fires.db", want: "fires.db?" + sqlitePragmas},
		{name: "existing query", in: "file:fires.db?cache=shared", want: "file:fires.db?cache=shared&" + sqlitePragmas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.in))
		})
	}
}
