package service_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
	"github.com/KruglovEgor/RestoStats/tests/testutil"
)

// TestStatsService_PeriodQueryParams checks how a period selection becomes query parameters
func TestStatsService_PeriodQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		period domain.PeriodSelection
		want   map[string]string
		absent []string
	}{
		{
			name:   "quick period uses periode",
			period: domain.QuickPeriod(domain.QuickThisWeek),
			want:   map[string]string{"periode": "this_week"},
			absent: []string{"startDate", "endDate"},
		},
		{
			name:   "single date sets both bounds",
			period: domain.SingleDate("2024-06-01"),
			want:   map[string]string{"startDate": "2024-06-01", "endDate": "2024-06-01"},
			absent: []string{"periode"},
		},
		{
			name:   "range sets start and end",
			period: domain.DateRangePeriod("2024-06-01", "2024-06-30"),
			want:   map[string]string{"startDate": "2024-06-01", "endDate": "2024-06-30"},
			absent: []string{"periode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			backend := testutil.NewMockBackend()
			backend.Responses["/stats/overview"] = domain.OverviewStats{Commandes: 3}
			svc := service.NewStatsService(backend, zap.NewNop())

			// Act
			stats, err := svc.Overview(context.Background(), tt.period)

			// Assert
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, stats.Commandes, 3, "commandes")
			query := backend.LastCall().Query
			for k, v := range tt.want {
				testutil.AssertEqual(t, query.Get(k), v, k)
			}
			for _, k := range tt.absent {
				testutil.AssertFalse(t, query.Has(k), k+" should be omitted")
			}
		})
	}
}

// TestStatsService_OptionalParamsOmitted checks that unset parameters are not sent
func TestStatsService_OptionalParamsOmitted(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stats/top-selling"] = []domain.TopSellingItem{{ID: "p1", Nom: "Attiéké poisson", Quantite: 12}}
	svc := service.NewStatsService(backend, zap.NewNop())

	items, err := svc.TopSelling(context.Background(), domain.QuickPeriod(domain.QuickToday), 0)

	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, items, 1)
	testutil.AssertFalse(t, backend.LastCall().Query.Has("limit"), "zero limit should be omitted")

	_, err = svc.Sales(context.Background(), domain.QuickPeriod(domain.QuickToday), "")
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, backend.LastCall().Query.Has("groupBy"), "empty groupBy should be omitted")
}

// TestStatsService_ExpensesUseFrenchDateNames checks the dateDebut/dateFin naming
func TestStatsService_ExpensesUseFrenchDateNames(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stats/expenses"] = domain.ExpenseStats{Total: 1500}
	svc := service.NewStatsService(backend, zap.NewNop())

	stats, err := svc.Expenses(context.Background(), domain.DateRangePeriod("2024-06-01", "2024-06-07"))

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, stats.Total, 1500.0)
	query := backend.LastCall().Query
	testutil.AssertEqual(t, query.Get("dateDebut"), "2024-06-01")
	testutil.AssertEqual(t, query.Get("dateFin"), "2024-06-07")
	testutil.AssertFalse(t, query.Has("startDate"))
}

// TestStatsService_PersonnelSurfacesErrors checks there is no fallback data
func TestStatsService_PersonnelSurfacesErrors(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Errors["/stats/personnel"] = fmt.Errorf("GET /stats/personnel: %w", domain.ErrNotFound)
	svc := service.NewStatsService(backend, zap.NewNop())

	stats, err := svc.Personnel(context.Background(), domain.QuickPeriod(domain.QuickToday))

	testutil.AssertNil(t, stats)
	testutil.AssertErrorIs(t, err, domain.ErrNotFound)
}

// TestStatsService_Export checks the binary export and the default filename
func TestStatsService_Export(t *testing.T) {
	backend := testutil.NewMockBackend()
	svc := service.NewStatsService(backend, zap.NewNop())

	file, err := svc.Export(context.Background(), domain.SingleDate("2024-06-01"), "csv")

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, file.Filename, "statistiques-2024-06-01.csv")
	testutil.AssertEqual(t, string(file.Data), "date,recettes\n")
	testutil.AssertEqual(t, backend.LastCall().Query.Get("format"), "csv")
}

// TestStatsService_ClearCache checks the POST action
func TestStatsService_ClearCache(t *testing.T) {
	backend := testutil.NewMockBackend()
	svc := service.NewStatsService(backend, zap.NewNop())

	err := svc.ClearCache(context.Background())

	testutil.AssertNoError(t, err)
	call := backend.LastCall()
	testutil.AssertEqual(t, call.Method, http.MethodPost)
	testutil.AssertEqual(t, call.Path, "/stats/clear-cache")
}

// TestRecettesService_Query checks the recettes query for each period mode
func TestRecettesService_Query(t *testing.T) {
	tests := []struct {
		name  string
		query service.RecettesQuery
		want  map[string]string
	}{
		{
			name:  "single date",
			query: service.RecettesQuery{Period: domain.SingleDate("2024-06-01"), GroupBy: "day"},
			want:  map[string]string{"date": "2024-06-01", "groupBy": "day"},
		},
		{
			name:  "range",
			query: service.RecettesQuery{Period: domain.DateRangePeriod("2024-01-01", "2024-06-30"), GroupBy: "month"},
			want:  map[string]string{"startDate": "2024-01-01", "endDate": "2024-06-30", "groupBy": "month"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewMockBackend()
			backend.Responses["/recettes"] = []domain.DateGroupRecord{
				{ID: domain.DateGroupID{Year: 2024, Month: 6, Day: 1}, Commandes: 12, Recettes: 54000},
			}
			svc := service.NewRecettesService(backend, zap.NewNop())

			records, err := svc.Recettes(context.Background(), tt.query)

			testutil.AssertNoError(t, err)
			testutil.AssertLen(t, records, 1)
			query := backend.LastCall().Query
			for k, v := range tt.want {
				testutil.AssertEqual(t, query.Get(k), v, k)
			}
		})
	}
}

// TestNotificationService_Actions checks methods and paths of notification actions
func TestNotificationService_Actions(t *testing.T) {
	backend := testutil.NewMockBackend()
	svc := service.NewNotificationService(backend, zap.NewNop())
	ctx := context.Background()

	testutil.AssertNoError(t, svc.MarkRead(ctx, "n-1"))
	testutil.AssertEqual(t, backend.LastCall().Method, http.MethodPatch)
	testutil.AssertEqual(t, backend.LastCall().Path, "/notifications/n-1/read")

	testutil.AssertNoError(t, svc.MarkAllRead(ctx))
	testutil.AssertEqual(t, backend.LastCall().Path, "/notifications/mark-all-read")

	testutil.AssertNoError(t, svc.Delete(ctx, "n-2"))
	testutil.AssertEqual(t, backend.LastCall().Method, http.MethodDelete)
	testutil.AssertEqual(t, backend.LastCall().Path, "/notifications/n-2")

	testutil.AssertErrorIs(t, svc.Delete(ctx, ""), domain.ErrInvalidInput)

	_, err := svc.List(ctx, true)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, backend.LastCall().Query.Get("nonLues"), "true")
}

// TestSchedulerService checks scheduler status and actions
func TestSchedulerService(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/scheduler/status"] = domain.SchedulerStatus{Running: true}
	svc := service.NewSchedulerService(backend, zap.NewNop())
	ctx := context.Background()

	status, err := svc.Status(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, status.Running, "scheduler should be running")

	testutil.AssertNoError(t, svc.RunTask(ctx, "daily-report"))
	testutil.AssertEqual(t, backend.LastCall().Path, "/scheduler/run/daily-report")

	testutil.AssertNoError(t, svc.Stop(ctx))
	testutil.AssertEqual(t, backend.LastCall().Path, "/scheduler/stop")

	testutil.AssertErrorIs(t, svc.RunTask(ctx, ""), domain.ErrInvalidInput)
}

// TestStockService_Movements checks the movement filter
func TestStockService_Movements(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Responses["/stock/movements"] = []domain.StockMovement{{ID: "m1", Type: "sortie", Quantite: 2}}
	svc := service.NewStockService(backend, zap.NewNop())

	moves, err := svc.Movements(context.Background(), domain.MovementFilter{Type: "sortie", Limit: 20})

	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, moves, 1)
	query := backend.LastCall().Query
	testutil.AssertEqual(t, query.Get("type"), "sortie")
	testutil.AssertEqual(t, query.Get("limit"), "20")
	testutil.AssertFalse(t, query.Has("article"))
}

// newEnvelopeClient returns the real HTTP client pointed at a fake backend
// that wraps every payload in the {success, data} envelope
func newEnvelopeClient(t *testing.T) (*testutil.FakeBackend, *apiclient.Client) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	client, err := apiclient.New(apiclient.Config{
		BaseURL: fb.URL,
		Timeout: 5 * time.Second,
	}, testutil.NewMockTokenStore("t"), zap.NewNop(), telemetry.NewNoop())
	testutil.AssertNoError(t, err)
	return fb, client
}

// TestStatsService_PreparationTime checks the period query and the unwrapped payload
func TestStatsService_PreparationTime(t *testing.T) {
	// Arrange
	fb, client := newEnvelopeClient(t)
	want := domain.PreparationTimeStats{
		Moyenne: 14.5, Min: 4, Max: 38,
		ParCategorie: []domain.CategoryDuration{{Categorie: "grillades", Moyenne: 22}},
	}
	fb.Respond("/stats/preparation-time", want)
	svc := service.NewStatsService(client, zap.NewNop())

	// Act
	got, err := svc.PreparationTime(context.Background(), domain.QuickPeriod(domain.QuickThisWeek))

	// Assert
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *got, want)
	query := fb.LastQuery("/stats/preparation-time")
	testutil.AssertEqual(t, query.Get("periode"), "this_week")
	testutil.AssertFalse(t, query.Has("startDate"))
}

// TestStatsService_Comparison checks the range query and the unwrapped payload
func TestStatsService_Comparison(t *testing.T) {
	fb, client := newEnvelopeClient(t)
	want := domain.ComparisonStats{
		Actuelle:   domain.PeriodTotals{Commandes: 120, Recettes: 360000},
		Precedente: domain.PeriodTotals{Commandes: 100, Recettes: 300000},
	}
	fb.Respond("/stats/comparison", want)
	svc := service.NewStatsService(client, zap.NewNop())

	got, err := svc.Comparison(context.Background(), domain.DateRangePeriod("2024-06-01", "2024-06-07"))

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *got, want)
	query := fb.LastQuery("/stats/comparison")
	testutil.AssertEqual(t, query.Get("startDate"), "2024-06-01")
	testutil.AssertEqual(t, query.Get("endDate"), "2024-06-07")
	testutil.AssertFalse(t, query.Has("periode"))
}

// TestStatsService_StockStats checks that no query is sent
func TestStatsService_StockStats(t *testing.T) {
	fb, client := newEnvelopeClient(t)
	want := domain.StockStats{TotalArticles: 42, ArticlesEnAlerte: 3, ValeurTotale: 815000}
	fb.Respond("/stats/stock", want)
	svc := service.NewStatsService(client, zap.NewNop())

	got, err := svc.StockStats(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, *got, want)
	testutil.AssertLen(t, fb.LastQuery("/stats/stock"), 0)
}

// TestStockService_List checks the optional category filter
func TestStockService_List(t *testing.T) {
	tests := []struct {
		name      string
		categorie string
		wantQuery bool
	}{
		{name: "all items", categorie: ""},
		{name: "one category", categorie: "boissons", wantQuery: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			fb, client := newEnvelopeClient(t)
			items := []domain.StockItem{{ID: "s1", Nom: "Bissap", Categorie: "boissons", Quantite: 12, Unite: "L"}}
			fb.Respond("/stock", items)
			svc := service.NewStockService(client, zap.NewNop())

			// Act
			got, err := svc.List(context.Background(), tt.categorie)

			// Assert
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, items)
			query := fb.LastQuery("/stock")
			testutil.AssertEqual(t, query.Has("categorie"), tt.wantQuery)
			if tt.wantQuery {
				testutil.AssertEqual(t, query.Get("categorie"), tt.categorie)
			}
		})
	}
}
