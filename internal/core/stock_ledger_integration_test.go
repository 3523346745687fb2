package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"solarstock/internal/core"
)

func TestStockLedger_AppendUpdatesCounter(t *testing.T) {
	pool := setupTestDB(t)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	mv, err := ledger.Append(ctx, core.MovementInput{
		MaterialID: 1,
		Change:     decimal.NewFromInt(10),
		Kind:       core.MovementManualIn,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if mv.ID == 0 || !mv.Change.Equal(decimal.NewFromInt(10)) {
		t.Errorf("movement = %+v", mv)
	}
	if got := materialStock(t, pool, 1); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("stock = %s, want 30", got)
	}

	// OUT movement brings it back down.
	if _, err := ledger.Append(ctx, core.MovementInput{
		MaterialID: 1,
		Change:     decimal.NewFromInt(-25),
		Kind:       core.MovementManualOut,
	}); err != nil {
		t.Fatalf("Append out: %v", err)
	}
	if got := materialStock(t, pool, 1); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stock = %s, want 5", got)
	}
}

func TestStockLedger_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	before := countMovements(t, pool)
	_, err := ledger.Append(ctx, core.MovementInput{
		MaterialID: 2,
		Change:     decimal.NewFromInt(-50),
		Kind:       core.MovementManualOut,
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	// The rejected movement must leave no trace.
	if got := countMovements(t, pool); got != before {
		t.Errorf("movements = %d, want %d", got, before)
	}
	if got := materialStock(t, pool, 2); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("stock = %s, want 2", got)
	}
}

func TestStockLedger_RejectsZeroChange(t *testing.T) {
	pool := setupTestDB(t)
	ledger := core.NewStockLedger(pool)

	if _, err := ledger.Append(context.Background(), core.MovementInput{
		MaterialID: 1,
		Change:     decimal.Zero,
		Kind:       core.MovementAdjustment,
	}); err == nil {
		t.Fatal("expected error for zero change")
	}
}

func TestStockLedger_UnknownMaterial(t *testing.T) {
	pool := setupTestDB(t)
	ledger := core.NewStockLedger(pool)

	_, err := ledger.Append(context.Background(), core.MovementInput{
		MaterialID: 9999,
		Change:     decimal.NewFromInt(1),
		Kind:       core.MovementManualIn,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStockLedger_ListMovementsFilter(t *testing.T) {
	pool := setupTestDB(t)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	projectID := 1
	for _, in := range []core.MovementInput{
		{MaterialID: 1, Change: decimal.NewFromInt(5), Kind: core.MovementManualIn},
		{MaterialID: 1, Change: decimal.NewFromInt(-3), Kind: core.MovementProjectOut, ProjectID: &projectID},
		{MaterialID: 3, Change: decimal.NewFromInt(-10), Kind: core.MovementProjectOut, ProjectID: &projectID},
	} {
		if _, err := ledger.Append(ctx, in); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	byMaterial, err := ledger.ListMovements(ctx, core.MovementFilter{MaterialID: 1})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(byMaterial) != 2 {
		t.Errorf("movements for material 1 = %d, want 2", len(byMaterial))
	}

	byProject, err := ledger.ListMovements(ctx, core.MovementFilter{ProjectID: 1})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(byProject) != 2 {
		t.Errorf("movements for project 1 = %d, want 2", len(byProject))
	}
	for _, mv := range byProject {
		if mv.Kind != core.MovementProjectOut {
			t.Errorf("unexpected kind %s", mv.Kind)
		}
	}
}
