package dashboard_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/cache"
	"github.com/KruglovEgor/RestoStats/internal/dashboard"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
	"github.com/KruglovEgor/RestoStats/internal/watcher"
	"github.com/KruglovEgor/RestoStats/tests/testutil"
)

var juneFirst = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

func newCache() *cache.Cache {
	return cache.New(cache.Config{
		TTLs: map[string]time.Duration{
			cache.FamilyStats:     time.Minute,
			cache.FamilyLists:     4 * time.Minute,
			cache.FamilyPersonnel: 45 * time.Second,
			cache.FamilyRecettes:  0,
		},
		DefaultTTL: time.Minute,
	}, zap.NewNop(), telemetry.NewNoop())
}

func newLoader(backend domain.BackendClient, c *cache.Cache) *dashboard.Loader {
	logger := zap.NewNop()
	return dashboard.NewLoader(
		service.NewStatsService(backend, logger),
		service.NewRecettesService(backend, logger),
		service.NewStockService(backend, logger),
		service.NewNotificationService(backend, logger),
		c,
		5,
	)
}

// newHTTPStack wires the real HTTP client against a fake backend
func newHTTPStack(t *testing.T) (*testutil.FakeBackend, *testutil.MockTokenStore, *dashboard.Loader, *cache.Cache) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	tokens := testutil.NewMockTokenStore("secret-token")
	client, err := apiclient.New(apiclient.Config{
		BaseURL: fb.URL,
		Timeout: 2 * time.Second,
	}, tokens, zap.NewNop(), telemetry.NewNoop())
	testutil.AssertNoError(t, err)

	c := newCache()
	return fb, tokens, newLoader(client, c), c
}

func newDashboard(loader *dashboard.Loader) *dashboard.Dashboard {
	return dashboard.New(loader, dashboard.Options{Now: juneFirst}, watcher.Deps{
		Logger:  zap.NewNop(),
		Metrics: telemetry.NewNoop(),
	})
}

// TestRecettes_EndToEnd loads one day of revenue through the whole stack
func TestRecettes_EndToEnd(t *testing.T) {
	// Arrange
	fb, _, loader, _ := newHTTPStack(t)
	record := domain.DateGroupRecord{
		ID:        domain.DateGroupID{Year: 2024, Month: 6, Day: 1},
		Commandes: 18,
		Recettes:  54000,
	}
	fb.Respond("/recettes", []domain.DateGroupRecord{record})

	d := newDashboard(loader)
	defer d.Stop()

	// Act
	d.Recettes.Start(context.Background())
	state, err := d.Recettes.WaitLoaded(context.Background())

	// Assert
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, state.Loading, "loading")
	testutil.AssertEqual(t, state.Error, "")
	testutil.AssertNotNil(t, state.Data)
	testutil.AssertEqual(t, *state.Data, []domain.DateGroupRecord{record})

	view := dashboard.BuildRecettesView(state, d.Recettes.DataParams())
	testutil.AssertEqual(t, view.Revenue, []domain.SeriesPoint{{Date: "1/6", Value: 54000}})
	testutil.AssertEqual(t, view.Orders, []domain.SeriesPoint{{Date: "1/6", Value: 18}})
	testutil.AssertEqual(t, view.Summary.Recettes, 54000.0)

	query := fb.LastQuery("/recettes")
	testutil.AssertEqual(t, query.Get("date"), "2024-06-01")
	testutil.AssertEqual(t, query.Get("groupBy"), "day")
	testutil.AssertEqual(t, fb.LastAuthorization("/recettes"), "Bearer secret-token")
}

// TestBuildRecettesView_LabelsFollowLoadedRecords keeps month labels when
// the requested grouping never reached the backend
func TestBuildRecettesView_LabelsFollowLoadedRecords(t *testing.T) {
	// Arrange
	june := domain.DateGroupID{Year: 2024, Month: 6}
	records := []domain.DateGroupRecord{{ID: june, Commandes: 420, Recettes: 1_260_000}}
	state := domain.StatResult[[]domain.DateGroupRecord]{Data: &records, Error: watcher.MsgRateLimited}
	requested := service.RecettesQuery{Period: domain.SingleDate("2024-06-01"), GroupBy: "day"}

	// Act
	view := dashboard.BuildRecettesView(state, requested)

	// Assert
	label := aggregation.DateLabel(june, aggregation.ByMonth)
	testutil.AssertEqual(t, view.Revenue, []domain.SeriesPoint{{Date: label, Value: 1_260_000}})
	testutil.AssertEqual(t, view.Orders, []domain.SeriesPoint{{Date: label, Value: 420}})
	testutil.AssertEqual(t, view.Series[0].Date, label)
}

// TestLoader_ConcurrentIdenticalRequestsShareOneCall checks in-flight de-duplication
func TestLoader_ConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	// Arrange
	fb, _, loader, c := newHTTPStack(t)
	fb.Respond("/recettes", []domain.DateGroupRecord{{Commandes: 1, Recettes: 10}})
	fb.Gate = make(chan struct{})

	q := service.RecettesQuery{Period: domain.SingleDate("2024-06-01"), GroupBy: "day"}
	key := cache.Key(cache.FamilyRecettes, q.Key())

	var wg sync.WaitGroup
	results := make([][]domain.DateGroupRecord, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		results[i], errs[i] = loader.Recettes(context.Background(), q)
	}

	// Act
	wg.Add(2)
	go call(0)
	testutil.AssertEventually(t, func() bool { return c.IsInFlight(key) }, 2*time.Second, "first call in flight")
	go call(1)
	time.Sleep(30 * time.Millisecond)
	close(fb.Gate)
	wg.Wait()

	// Assert
	testutil.AssertNoError(t, errs[0])
	testutil.AssertNoError(t, errs[1])
	testutil.AssertEqual(t, fb.Hits("/recettes"), 1, "backend calls")
	testutil.AssertEqual(t, results[0], results[1])
	testutil.AssertFalse(t, c.IsInFlight(key), "in-flight key should be cleared")
}

// TestRecettes_UnauthorizedKeepsDataAndClearsToken checks the 401 path
func TestRecettes_UnauthorizedKeepsDataAndClearsToken(t *testing.T) {
	fb, tokens, loader, _ := newHTTPStack(t)
	records := []domain.DateGroupRecord{{ID: domain.DateGroupID{Year: 2024, Month: 6, Day: 1}, Recettes: 100}}
	fb.Respond("/recettes", records)

	d := newDashboard(loader)
	defer d.Stop()
	d.Recettes.Start(context.Background())
	_, err := d.Recettes.WaitLoaded(context.Background())
	testutil.AssertNoError(t, err)

	fb.Fail("/recettes", http.StatusUnauthorized)
	state, err := d.Recettes.Refetch(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Error, watcher.MsgUnauthorized)
	testutil.AssertNotNil(t, state.Data)
	testutil.AssertEqual(t, *state.Data, records)
	testutil.AssertEqual(t, tokens.Cleared, 1, "token should be cleared")
}

// TestAdvanced_LoadsAllBlocks checks the parallel fetch and the nested envelope
func TestAdvanced_LoadsAllBlocks(t *testing.T) {
	fb, _, loader, _ := newHTTPStack(t)
	fb.Respond("/stats/overview", domain.OverviewStats{Commandes: 40, Recettes: 200000})
	fb.Respond("/stats/sales", domain.SalesStats{Total: 200000, Commandes: 40})
	fb.Respond("/stats/top-selling", []domain.TopSellingItem{{ID: "p1", Nom: "Garba", Quantite: 25}})
	fb.Respond("/stats/performance-complete", map[string]any{
		"data": domain.PerformanceStats{Commandes: 40, TauxAnnulation: 2.5},
	})

	data, err := loader.Advanced(context.Background(), domain.QuickPeriod(domain.QuickToday))

	testutil.AssertNoError(t, err)
	testutil.AssertNotNil(t, data.Overview)
	testutil.AssertEqual(t, data.Overview.Recettes, 200000.0)
	testutil.AssertNotNil(t, data.Performance)
	testutil.AssertEqual(t, data.Performance.TauxAnnulation, 2.5)
	testutil.AssertLen(t, data.TopSelling, 1)
	testutil.AssertEqual(t, fb.LastQuery("/stats/top-selling").Get("limit"), "5")
	testutil.AssertEqual(t, fb.LastQuery("/stats/overview").Get("periode"), "today")
}

// TestAdvanced_FailureKeepsPreviousData checks that one failed block fails the attempt
func TestAdvanced_FailureKeepsPreviousData(t *testing.T) {
	fb, _, loader, c := newHTTPStack(t)
	fb.Respond("/stats/overview", domain.OverviewStats{Commandes: 1})
	fb.Respond("/stats/sales", domain.SalesStats{})
	fb.Respond("/stats/top-selling", []domain.TopSellingItem{})
	fb.Respond("/stats/performance-complete", domain.PerformanceStats{})

	d := newDashboard(loader)
	defer d.Stop()
	d.Advanced.Start(context.Background())
	first, err := d.Advanced.WaitLoaded(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertNotNil(t, first.Data)

	c.Invalidate(cache.FamilyStats + ":")
	fb.Fail("/stats/sales", http.StatusNotFound)
	state, err := d.Advanced.Refetch(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Error, watcher.MsgNotFound)
	testutil.AssertNotNil(t, state.Data)
	testutil.AssertEqual(t, state.Data.Overview.Commandes, 1)
}

// TestCaisse_DeltasAndPayments compares the day with the previous day
func TestCaisse_DeltasAndPayments(t *testing.T) {
	// Arrange
	backend := testutil.NewMockBackend()
	backend.GetFunc = func(ctx context.Context, path string, query url.Values, out any) error {
		switch path {
		case "/stats/overview":
			o := out.(*domain.OverviewStats)
			if query.Get("startDate") == "2024-06-01" {
				*o = domain.OverviewStats{Commandes: 40, Recettes: 120000}
			} else {
				*o = domain.OverviewStats{Commandes: 50, Recettes: 100000}
			}
		case "/stats/payment-methods":
			*out.(*[]domain.PaymentMethodStat) = []domain.PaymentMethodStat{
				{Methode: "ESPECES", Total: 90000, Count: 30},
				{Methode: "ORANGE_MONEY", Total: 30000, Count: 10},
			}
		}
		return nil
	}
	loader := newLoader(backend, newCache())

	// Act
	data, err := loader.Caisse(context.Background(), "2024-06-01")

	// Assert
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, data.Deltas.Recettes, domain.Delta{Value: 20, IsPositive: true})
	testutil.AssertEqual(t, data.Deltas.Commandes, domain.Delta{Value: 20, IsPositive: false})
	testutil.AssertEqual(t, data.Payments, []aggregation.PaymentBreakdown{
		{Code: "ESPECES", Label: "Espèces", Total: 90000, Count: 30, Share: 75},
		{Code: "ORANGE_MONEY", Label: "Orange Money", Total: 30000, Count: 10, Share: 25},
	})
	testutil.AssertEqual(t, backend.CallCount("/stats/overview"), 2)
}

// TestCaisse_InvalidDate rejects malformed dates before any call
func TestCaisse_InvalidDate(t *testing.T) {
	backend := testutil.NewMockBackend()
	loader := newLoader(backend, newCache())

	_, err := loader.Caisse(context.Background(), "01/06/2024")

	testutil.AssertErrorIs(t, err, domain.ErrInvalidInput)
	testutil.AssertLen(t, backend.Calls, 0)
}

// TestSynchronized_AllLoadedGate checks that the summary waits for every block
func TestSynchronized_AllLoadedGate(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stats/overview"] = domain.OverviewStats{Commandes: 10, Recettes: 25000}
	backend.Responses["/stats/personnel"] = domain.PersonnelStats{TotalEmployes: 8, Presents: 6}
	d := newDashboard(newLoader(backend, newCache()))
	defer d.Stop()

	before := d.Synchronized.State()
	testutil.AssertFalse(t, before.AllLoaded, "nothing loaded yet")
	testutil.AssertNil(t, before.Summary)

	d.Synchronized.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := d.Synchronized.WaitAllLoaded(ctx)

	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, state.AllLoaded, "all loaded")
	testutil.AssertNotNil(t, state.Summary)
	testutil.AssertEqual(t, state.Summary.Presents, 6)
	testutil.AssertEqual(t, state.Summary.DayShareOfMonth, 100.0)
	testutil.AssertEqual(t, state.Summary.MonthSummary.PanierMoyen, 2500.0)
}

// TestSynchronized_PersonnelErrorDoesNotBlockGate checks a failed block still leaves loading
func TestSynchronized_PersonnelErrorDoesNotBlockGate(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stats/overview"] = domain.OverviewStats{Commandes: 4, Recettes: 8000}
	backend.Errors["/stats/personnel"] = domain.ErrNotFound
	d := newDashboard(newLoader(backend, newCache()))
	defer d.Stop()

	d.Synchronized.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := d.Synchronized.WaitAllLoaded(ctx)

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Personnel.Error, watcher.MsgNotFound)
	testutil.AssertNotNil(t, state.Summary)
	testutil.AssertEqual(t, state.Summary.TotalEmployes, 0)
}

// TestDashboard_RefetchUnknownView returns not found
func TestDashboard_RefetchUnknownView(t *testing.T) {
	d := newDashboard(newLoader(testutil.NewMockBackend(), newCache()))
	defer d.Stop()

	_, err := d.Refetch(context.Background(), "kitchen")

	testutil.AssertErrorIs(t, err, domain.ErrNotFound)
}

// TestLoader_ClearCache forces the next read to hit the backend
func TestLoader_ClearCache(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stats/overview"] = domain.OverviewStats{Commandes: 1}
	loader := newLoader(backend, newCache())
	ctx := context.Background()
	period := domain.QuickPeriod(domain.QuickToday)

	_, err := loader.Overview(ctx, period)
	testutil.AssertNoError(t, err)
	_, err = loader.Overview(ctx, period)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, backend.CallCount("/stats/overview"), 1, "second read should be cached")

	testutil.AssertEqual(t, loader.ClearCache(), 1)
	_, err = loader.Overview(ctx, period)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, backend.CallCount("/stats/overview"), 2)
}
