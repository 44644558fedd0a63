package portfolio

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/models"
	"moneyflow/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeHoldings struct {
	groups []store.HoldingAggregate
	err    error
}

func (f *fakeHoldings) GroupByHolding(ctx context.Context, filter store.InvestmentFilter) ([]store.HoldingAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if filter.Name == "" {
		return f.groups, nil
	}
	out := make([]store.HoldingAggregate, 0)
	for _, g := range f.groups {
		if g.Name == filter.Name {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeHoldings) List(ctx context.Context, filter store.InvestmentFilter, limit, offset int) ([]store.InvestmentRow, error) {
	return []store.InvestmentRow{}, nil
}

type fakeSnapshots struct {
	mu       sync.Mutex
	values   map[string]float64
	failFor  string
	recorded []string
}

func (f *fakeSnapshots) Latest(ctx context.Context, name string) (*models.ValuationSnapshot, error) {
	if name == f.failFor {
		return nil, database.ErrStoreUnavailable
	}
	v, ok := f.values[name]
	if !ok {
		return nil, nil
	}
	return &models.ValuationSnapshot{InvestmentName: name, CurrentValue: v, RecordedAt: testNow}, nil
}

func (f *fakeSnapshots) History(ctx context.Context, name string, limit int) ([]models.ValuationSnapshot, error) {
	return []models.ValuationSnapshot{}, nil
}

func (f *fakeSnapshots) Record(ctx context.Context, name string, value float64) (*models.ValuationSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, name)
	return &models.ValuationSnapshot{InvestmentName: name, CurrentValue: value, RecordedAt: testNow}, nil
}

func newTestEngine(groups []store.HoldingAggregate, values map[string]float64) (*Engine, *fakeSnapshots) {
	snaps := &fakeSnapshots{values: values}
	e := NewEngine(&fakeHoldings{groups: groups}, snaps, 4)
	e.Now = func() time.Time { return testNow }
	return e, snaps
}

func daysBefore(n int) string {
	return testNow.AddDate(0, 0, -n).Format(models.DateLayout)
}

func TestSummary_CAGRThreshold(t *testing.T) {
	ctx := context.Background()

	recent, _ := newTestEngine([]store.HoldingAggregate{
		{Name: "Fund", TotalInvested: 1000, TransactionCount: 1, FirstDate: daysBefore(10), LastDate: daysBefore(10)},
	}, map[string]float64{"Fund": 1100})
	s, err := recent.Summary(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	item := s.Items[0]
	require.NotNil(t, item.Profit)
	assert.InDelta(t, 100.0, *item.Profit, 1e-9)
	require.NotNil(t, item.ProfitPercentage)
	assert.InDelta(t, 10.0, *item.ProfitPercentage, 1e-9)
	assert.Nil(t, item.CAGR)

	older, _ := newTestEngine([]store.HoldingAggregate{
		{Name: "Fund", TotalInvested: 1000, TransactionCount: 1, FirstDate: daysBefore(400), LastDate: daysBefore(400)},
	}, map[string]float64{"Fund": 1100})
	s, err = older.Summary(ctx, Filter{})
	require.NoError(t, err)
	require.NotNil(t, s.Items[0].CAGR)
	assert.Greater(t, *s.Items[0].CAGR, 0.0)
	assert.Less(t, *s.Items[0].CAGR, 10.0)
}

func TestSummary_ZeroInvestment(t *testing.T) {
	e, _ := newTestEngine([]store.HoldingAggregate{
		{Name: "Gift", TotalInvested: 0, FirstDate: daysBefore(800)},
	}, map[string]float64{"Gift": 500})

	s, err := e.Summary(context.Background(), Filter{})
	require.NoError(t, err)
	item := s.Items[0]
	require.NotNil(t, item.CurrentValue)
	assert.Nil(t, item.Profit)
	assert.Nil(t, item.ProfitPercentage)
	assert.Nil(t, item.CAGR)
	assert.Equal(t, 0.0, s.TotalProfitPercentage)
}

func TestSummary_TotalsOnlyCountValuedHoldings(t *testing.T) {
	e, _ := newTestEngine([]store.HoldingAggregate{
		{Name: "Valued", TotalInvested: 1000, FirstDate: daysBefore(100)},
		{Name: "Unvalued", TotalInvested: 3000, FirstDate: daysBefore(100)},
	}, map[string]float64{"Valued": 1200})

	s, err := e.Summary(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, s.TotalInvested)
	assert.Equal(t, 1200.0, s.TotalCurrentValue)
	assert.Equal(t, 200.0, s.TotalProfit)
	assert.InDelta(t, 20.0, s.TotalProfitPercentage, 1e-9)

	require.Len(t, s.Items, 2)
	assert.Equal(t, "Valued", s.Items[0].Name)
	assert.Nil(t, s.Items[1].CurrentValue)
	assert.Nil(t, s.Items[1].Profit)
}

func TestSummary_Empty(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	s, err := e.Summary(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, s.Items)
	assert.Equal(t, 0.0, s.TotalInvested)
	assert.Equal(t, 0.0, s.TotalProfitPercentage)
}

func TestSummary_PropagatesLookupError(t *testing.T) {
	groups := make([]store.HoldingAggregate, 0, 20)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		groups = append(groups, store.HoldingAggregate{Name: name, TotalInvested: 10, FirstDate: daysBefore(50)})
	}
	e, snaps := newTestEngine(groups, map[string]float64{})
	snaps.failFor = "e"

	s, err := e.Summary(context.Background(), Filter{})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))

	failing := NewEngine(&fakeHoldings{err: database.ErrStoreUnavailable}, snaps, 2)
	_, err = failing.Summary(context.Background(), Filter{})
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))
}

func TestRecordValue(t *testing.T) {
	ctx := context.Background()
	e, snaps := newTestEngine([]store.HoldingAggregate{{Name: "Fund", TotalInvested: 10, FirstDate: daysBefore(5)}}, nil)

	_, err := e.RecordValue(ctx, "Fund", -1)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = e.RecordValue(ctx, "Unknown", 10)
	assert.ErrorIs(t, err, store.ErrNotFound)

	snap, err := e.RecordValue(ctx, " Fund ", 0)
	require.NoError(t, err)
	assert.Equal(t, "Fund", snap.InvestmentName)
	assert.Equal(t, []string{"Fund"}, snaps.recorded)
}

func TestCAGR_Guards(t *testing.T) {
	assert.Nil(t, cagr(100, 100, "not-a-date", testNow))
	assert.Nil(t, cagr(100, 100, daysBefore(30), testNow))

	v := cagr(0, 100, daysBefore(365), testNow)
	require.NotNil(t, v)
	assert.InDelta(t, -100.0, *v, 1e-9)

	doubled := cagr(2000, 1000, testNow.AddDate(-2, 0, 0).Format(models.DateLayout), testNow)
	require.NotNil(t, doubled)
	assert.InDelta(t, 41.4, *doubled, 0.2)
}

func TestEngine_WithSQLiteStores(t *testing.T) {
	ctx := context.Background()
	db, err := database.Init(&config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "portfolio.db"),
	}})
	require.NoError(t, err)
	defer database.Close(db)

	types, err := store.NewInvestmentTypeRegistry(db).List(ctx, true)
	require.NoError(t, err)
	investments := store.NewInvestmentStore(db, nil)
	snapshots := store.NewSnapshotStore(db)

	for _, in := range []models.InvestmentContribution{
		{Name: "Index Fund", TypeID: types[0].ID, Amount: 600, Date: "2024-01-01"},
		{Name: "Index Fund", TypeID: types[0].ID, Amount: 400, Date: "2024-03-01"},
		{Name: "Index Fund", TypeID: types[1].ID, Amount: 50, Date: "2024-04-01"},
		{Name: "Gold", TypeID: types[1].ID, Amount: 300, Date: "2024-02-01"},
	} {
		in := in
		require.NoError(t, investments.Create(ctx, &in))
	}

	e := NewEngine(investments, snapshots, 2)
	e.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err = e.RecordValue(ctx, "Index Fund", 1100)
	require.NoError(t, err)

	s, err := e.Summary(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, s.Items, 3)
	assert.Equal(t, "Index Fund", s.Items[0].Name)
	assert.Equal(t, 1000.0, s.Items[0].TotalInvested)
	assert.Equal(t, int64(2), s.Items[0].TransactionCount)
	require.NotNil(t, s.Items[0].CAGR)
	assert.Equal(t, 1350.0, s.TotalInvested)
	assert.Equal(t, 2200.0, s.TotalCurrentValue)

	filtered, err := e.Summary(ctx, Filter{TypeID: types[1].ID})
	require.NoError(t, err)
	assert.Len(t, filtered.Items, 2)

	detail, err := e.Holding(ctx, "Index Fund")
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.Contributions, 3)
	assert.Len(t, detail.History, 1)

	_, err = e.Holding(ctx, "Nothing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
