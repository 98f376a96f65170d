package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/tests/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flagToken, flagBackendURL = "", ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestPeriodFlags_Selection(t *testing.T) {
	tests := []struct {
		name    string
		flags   periodFlags
		want    domain.PeriodSelection
		wantErr bool
	}{
		{
			name:  "defaults to today",
			flags: periodFlags{},
			want:  domain.QuickPeriod(domain.QuickToday),
		},
		{
			name:  "single date",
			flags: periodFlags{date: "2024-06-01"},
			want:  domain.SingleDate("2024-06-01"),
		},
		{
			name:  "range",
			flags: periodFlags{from: "2024-06-01", to: "2024-06-30"},
			want:  domain.DateRangePeriod("2024-06-01", "2024-06-30"),
		},
		{
			name:    "conflicting flags",
			flags:   periodFlags{quick: "today", date: "2024-06-01"},
			wantErr: true,
		},
		{
			name:    "inverted range",
			flags:   periodFlags{from: "2024-06-30", to: "2024-06-01"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.selection()

			if tt.wantErr {
				testutil.AssertTrue(t, errors.Is(err, domain.ErrInvalidInput), "expected invalid input, got %v", err)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestRecettesCommand_PrintsSeries(t *testing.T) {
	// Arrange
	fb := testutil.NewFakeBackend(t)
	fb.Respond("/recettes", []domain.DateGroupRecord{
		{ID: domain.DateGroupID{Year: 2024, Month: 6, Day: 1}, Commandes: 18, Recettes: 54000},
	})

	// Act
	out, err := execute(t, "recettes", "--date", "2024-06-01", "--group-by", "day",
		"--backend-url", fb.URL, "--token", "cli-token")

	// Assert
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, strings.Contains(out, "1/6"), "missing label in %q", out)
	testutil.AssertTrue(t, strings.Contains(out, "54000.00"), "missing revenue in %q", out)
	testutil.AssertEqual(t, fb.LastQuery("/recettes").Get("date"), "2024-06-01")
	testutil.AssertEqual(t, fb.LastAuthorization("/recettes"), "Bearer cli-token")
}

func TestCompareCommand_UsesPreviousDay(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Respond("/stats/overview", domain.OverviewStats{Commandes: 10, Recettes: 30000})

	out, err := execute(t, "compare", "--date", "2024-06-01", "--backend-url", fb.URL, "--token", "cli-token")

	testutil.AssertNoError(t, err)
	var got comparison
	testutil.AssertNoError(t, json.Unmarshal([]byte(out), &got))
	testutil.AssertEqual(t, got.Previous, "2024-05-31")
	testutil.AssertEqual(t, got.Deltas.Recettes, domain.Delta{Value: 0, IsPositive: true})
	testutil.AssertEqual(t, fb.Hits("/stats/overview"), 2)
}

func TestStockCommand_FiltersByCategory(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Respond("/stock", []domain.StockItem{{ID: "s1", Nom: "Riz", Quantite: 25, Unite: "kg", SeuilAlerte: 10}})
	fb.Respond("/stats/stock", domain.StockStats{TotalArticles: 1, ArticlesEnAlerte: 0, ValeurTotale: 17500})
	t.Cleanup(func() { stockCategorie = "" })

	out, err := execute(t, "stock", "--categorie", "cereales", "--backend-url", fb.URL, "--token", "cli-token")

	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, strings.Contains(out, "Riz"), "missing item in %q", out)
	testutil.AssertTrue(t, strings.Contains(out, "17500.00"), "missing stock value in %q", out)
	testutil.AssertEqual(t, fb.LastQuery("/stock").Get("categorie"), "cereales")
	testutil.AssertEqual(t, fb.Hits("/stats/stock"), 1)
}

func TestExportCommand_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "export", "--format", "docx", "--backend-url", "http://127.0.0.1:1")

	testutil.AssertTrue(t, errors.Is(err, domain.ErrInvalidInput), "expected invalid input, got %v", err)
	exportFormat = "csv"
}
