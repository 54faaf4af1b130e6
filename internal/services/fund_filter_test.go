package services

import (
	"strings"
	"testing"

	"pixiu/internal/models"
)

func TestBuildFundWhere_TimeOnly(t *testing.T) {
	clause, args := buildFundWhere(models.FundFilter{From: 10, To: 20})
	if clause != "WHERE timestamp BETWEEN ? AND ?" {
		t.Errorf("Unexpected clause: %q", clause)
	}
	if len(args) != 2 || args[0] != int64(10) || args[1] != int64(20) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildFundWhere_AllPredicates(t *testing.T) {
	clause, args := buildFundWhere(models.FundFilter{
		From:    1,
		To:      2,
		Source:  "card",
		Classes: []string{"food", "travel"},
	})
	want := "WHERE timestamp BETWEEN ? AND ? AND source = ? AND class IN (?, ?)"
	if clause != want {
		t.Errorf("Expected %q, got %q", want, clause)
	}
	if len(args) != 5 {
		t.Fatalf("Expected 5 args, got %d", len(args))
	}
	if args[2] != "card" || args[3] != "food" || args[4] != "travel" {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildFundWhere_HostileValuesStayArgs(t *testing.T) {
	// Every user-controlled value must travel as a bound argument,
	// never appear in the clause text.
	hostile := "x'; DROP TABLE fund_info; --"
	clause, args := buildFundWhere(models.FundFilter{
		From:    0,
		To:      1,
		Source:  hostile,
		Classes: []string{hostile},
	})
	if strings.Contains(clause, "DROP") {
		t.Fatalf("Hostile value leaked into clause: %q", clause)
	}
	found := 0
	for _, a := range args {
		if a == hostile {
			found++
		}
	}
	if found != 2 {
		t.Errorf("Expected hostile value twice in args, found %d", found)
	}
}
