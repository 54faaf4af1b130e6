package services

import (
	"context"
	"fmt"
	"testing"

	"pixiu/internal/models"
)

func fund(amount float64, class string, ts int64, source string) models.FundInfo {
	return models.FundInfo{
		Name:      "entry",
		Amount:    amount,
		Class:     class,
		Timestamp: ts,
		Source:    source,
	}
}

func seedFunds(t *testing.T, svc *FundService, entries ...models.FundInfo) {
	t.Helper()
	for _, e := range entries {
		if err := svc.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestFundAggregates(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc,
		fund(-50, "food", 100, "card"),
		fund(-30, "food", 200, "card"),
		fund(120, "salary", 150, "card"),
	)

	filter := models.FundFilter{From: 0, To: 300}

	income, err := svc.IncomeTotal(ctx, filter)
	if err != nil {
		t.Fatalf("IncomeTotal failed: %v", err)
	}
	if income != 120.00 {
		t.Errorf("Expected income 120.00, got %v", income)
	}

	expenses, err := svc.ExpenseTotal(ctx, filter)
	if err != nil {
		t.Fatalf("ExpenseTotal failed: %v", err)
	}
	if expenses != -80.00 {
		t.Errorf("Expected expenses -80.00, got %v", expenses)
	}

	sums, err := svc.GroupedExpenseSums(ctx, filter)
	if err != nil {
		t.Fatalf("GroupedExpenseSums failed: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("Expected 1 expense class, got %d (%+v)", len(sums), sums)
	}
	// salary nets to a non-positive magnitude under the expense grouping
	// and must be omitted
	if sums[0].Name != "food" || sums[0].Value != 80.00 {
		t.Errorf("Expected food=80.00, got %s=%v", sums[0].Name, sums[0].Value)
	}
}

func TestFundAggregates_EmptyFilter(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	filter := models.FundFilter{From: 0, To: 1000}

	income, err := svc.IncomeTotal(ctx, filter)
	if err != nil {
		t.Fatalf("IncomeTotal failed: %v", err)
	}
	if income != 0 {
		t.Errorf("Expected 0 income on empty ledger, got %v", income)
	}

	sums, err := svc.GroupedExpenseSums(ctx, filter)
	if err != nil {
		t.Fatalf("GroupedExpenseSums failed: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("Expected no sums on empty ledger, got %+v", sums)
	}
}

func TestFundAggregates_TimeRangeInclusive(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc,
		fund(10, "a", 100, "card"),
		fund(10, "a", 200, "card"),
		fund(10, "a", 300, "card"),
	)

	// Both bounds are inclusive
	count, err := svc.Count(ctx, models.FundFilter{From: 100, To: 200})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 entries in [100,200], got %d", count)
	}
}

func TestFundFilter_SourceAndClasses(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc,
		fund(-10, "food", 100, "card"),
		fund(-20, "travel", 110, "card"),
		fund(-30, "food", 120, "cash"),
		fund(-40, "rent", 130, "cash"),
	)

	count, err := svc.Count(ctx, models.FundFilter{From: 0, To: 1000, Source: "card"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 card entries, got %d", count)
	}

	// Classes match as an OR over the set
	count, err = svc.Count(ctx, models.FundFilter{From: 0, To: 1000, Classes: []string{"food", "rent"}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 entries for food|rent, got %d", count)
	}

	count, err = svc.Count(ctx, models.FundFilter{From: 0, To: 1000, Source: "cash", Classes: []string{"food"}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 cash food entry, got %d", count)
	}
}

func TestFundList_PaginationComplete(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	// 10 entries, several sharing a timestamp so the id tiebreak matters
	for i := 0; i < 10; i++ {
		seedFunds(t, svc, fund(-float64(i+1), "c", int64(100+(i/2)*10), "card"))
	}

	filter := models.FundFilter{From: 0, To: 1000}
	seen := make(map[uint32]int)
	var pages [][]models.FundInfo

	for page := 1; ; page++ {
		entries, err := svc.List(ctx, filter, page, 3)
		if err != nil {
			t.Fatalf("List page %d failed: %v", page, err)
		}
		if len(entries) == 0 {
			break
		}
		pages = append(pages, entries)
		for _, e := range entries {
			seen[e.ID]++
		}
	}

	// Union of all pages covers everything with no duplicates or gaps
	if len(seen) != 10 {
		t.Errorf("Expected 10 distinct entries across pages, got %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Entry %d appeared %d times", id, n)
		}
	}

	// Ordering: timestamp descending, id ascending as tiebreak
	var flat []models.FundInfo
	for _, p := range pages {
		flat = append(flat, p...)
	}
	for i := 1; i < len(flat); i++ {
		prev, cur := flat[i-1], flat[i]
		if cur.Timestamp > prev.Timestamp {
			t.Fatalf("Timestamps not descending at %d: %d after %d", i, cur.Timestamp, prev.Timestamp)
		}
		if cur.Timestamp == prev.Timestamp && cur.ID < prev.ID {
			t.Fatalf("Id tiebreak not ascending at %d", i)
		}
	}
}

func TestFundFilter_InjectionSafety(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc,
		fund(-10, "food", 100, "card"),
		fund(-20, "travel", 110, "cash"),
	)

	// Query-control characters in filter values must be matched as
	// literal strings, never alter the query or return unfiltered rows.
	hostile := []models.FundFilter{
		{From: 0, To: 1000, Source: "card' OR '1'='1"},
		{From: 0, To: 1000, Source: "x'; DROP TABLE fund_info; --"},
		{From: 0, To: 1000, Classes: []string{"food') OR ('1'='1"}},
		{From: 0, To: 1000, Classes: []string{`"; SELECT *`}},
	}

	for i, filter := range hostile {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			count, err := svc.Count(ctx, filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 0 {
				t.Errorf("Hostile filter matched %d rows, expected 0", count)
			}
		})
	}

	// The table is intact after the drop attempt
	count, err := svc.Count(ctx, models.FundFilter{From: 0, To: 1000})
	if err != nil {
		t.Fatalf("Count after hostile filters failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows to survive, got %d", count)
	}

	// A source whose literal value contains a quote still matches itself
	seedFunds(t, svc, fund(-5, "misc", 120, "o'brien"))
	count, err = svc.Count(ctx, models.FundFilter{From: 0, To: 1000, Source: "o'brien"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected quoted source to match literally, got %d", count)
	}
}

func TestFundUpdateDelete(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc, fund(-10, "food", 100, "card"))

	entries, err := svc.List(ctx, models.FundFilter{From: 0, To: 1000}, 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	id := entries[0].ID

	if err := svc.Update(ctx, id, fund(-15, "groceries", 100, "card")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	entries, _ = svc.List(ctx, models.FundFilter{From: 0, To: 1000}, 1, 10)
	if entries[0].Class != "groceries" || entries[0].Amount != -15 {
		t.Errorf("Update not applied: %+v", entries[0])
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	count, _ := svc.Count(ctx, models.FundFilter{From: 0, To: 1000})
	if count != 0 {
		t.Errorf("Expected empty ledger after delete, got %d", count)
	}
}

func TestFundDistinct_CacheInvalidation(t *testing.T) {
	svc := NewFundService(testDB(t))
	ctx := context.Background()

	seedFunds(t, svc, fund(-10, "food", 100, "card"))

	sources, err := svc.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %v", sources)
	}

	// A write must invalidate the cached list
	seedFunds(t, svc, fund(-10, "travel", 100, "cash"))

	sources, err = svc.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Errorf("Expected 2 sources after insert, got %v", sources)
	}

	classes, err := svc.Classes(ctx)
	if err != nil {
		t.Fatalf("Classes failed: %v", err)
	}
	if len(classes) != 2 {
		t.Errorf("Expected 2 classes, got %v", classes)
	}
}

func TestProperties_IncludeFundMovements(t *testing.T) {
	db := testDB(t)
	svc := NewFundService(db)
	ctx := context.Background()

	if _, err := db.Exec("INSERT INTO property_info (name, amount) VALUES (?, ?)", "card", 1000.0); err != nil {
		t.Fatalf("Failed to seed property: %v", err)
	}
	if _, err := db.Exec("INSERT INTO property_info (name, amount) VALUES (?, ?)", "vault", 500.0); err != nil {
		t.Fatalf("Failed to seed property: %v", err)
	}

	seedFunds(t, svc,
		fund(-200, "rent", 100, "card"),
		fund(300, "salary", 110, "card"),
	)

	properties, err := svc.Properties(ctx)
	if err != nil {
		t.Fatalf("Properties failed: %v", err)
	}
	if len(properties) != 2 {
		t.Fatalf("Expected 2 properties, got %d", len(properties))
	}

	balances := make(map[string]float64)
	for _, p := range properties {
		balances[p.Name] = p.Amount
	}
	if balances["card"] != 1100 {
		t.Errorf("Expected card balance 1100 (base + movements), got %v", balances["card"])
	}
	// An account with no movements keeps its base amount
	if balances["vault"] != 500 {
		t.Errorf("Expected vault balance 500, got %v", balances["vault"])
	}
}

func TestDebts(t *testing.T) {
	db := testDB(t)
	svc := NewFundService(db)

	if _, err := db.Exec(
		"INSERT INTO debt_info (name, amount, repayment, last_timestamp) VALUES (?, ?, ?, ?)",
		"mortgage", 250000.0, 1500.0, int64(1700000000000)); err != nil {
		t.Fatalf("Failed to seed debt: %v", err)
	}

	debts, err := svc.Debts(context.Background())
	if err != nil {
		t.Fatalf("Debts failed: %v", err)
	}
	if len(debts) != 1 || debts[0].Name != "mortgage" || debts[0].Repayment != 1500 {
		t.Errorf("Unexpected debts: %+v", debts)
	}
}
