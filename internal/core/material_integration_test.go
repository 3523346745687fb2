package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"solarstock/internal/core"
)

func strPtr(s string) *string { return &s }

func TestMaterial_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewMaterialService(pool)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.MaterialInput{
		SKU:          strPtr("ST-40"),
		Name:         "Sina montaj aluminiu 40mm",
		Unit:         "m",
		MinimumStock: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || !created.CurrentStock.IsZero() {
		t.Errorf("created = %+v", created)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Sina montaj aluminiu 40mm" || got.Unit != "m" {
		t.Errorf("got = %+v", got)
	}

	updated, err := svc.Update(ctx, created.ID, core.MaterialInput{
		SKU:          strPtr("ST-40"),
		Name:         "Sina montaj aluminiu 40x40",
		Unit:         "m",
		MinimumStock: decimal.NewFromInt(20),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Sina montaj aluminiu 40x40" {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("after delete: err = %v", err)
	}
}

func TestMaterial_DuplicateSKU(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewMaterialService(pool)

	_, err := svc.Create(context.Background(), core.MaterialInput{
		SKU:  strPtr("pv-450"), // differs only in case from the seeded SKU
		Name: "Alt panou",
	})
	if !errors.Is(err, core.ErrDuplicateSKU) {
		t.Errorf("err = %v, want ErrDuplicateSKU", err)
	}
}

func TestMaterial_RequiresName(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewMaterialService(pool)

	if _, err := svc.Create(context.Background(), core.MaterialInput{Name: "  "}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestMaterial_LowStock(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewMaterialService(pool)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	low, err := svc.LowStock(ctx)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("low stock = %d, want 0", len(low))
	}

	// Drain the inverter below its minimum of 1.
	if _, err := ledger.Append(ctx, core.MovementInput{
		MaterialID: 2,
		Change:     decimal.NewFromInt(-2),
		Kind:       core.MovementProjectOut,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	low, err = svc.LowStock(ctx)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(low) != 1 || low[0].ID != 2 {
		t.Errorf("low stock = %+v", low)
	}
}

func TestMaterial_Catalog(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewMaterialService(pool)

	entries, err := svc.Catalog(context.Background())
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].SKU != "PV-450" || entries[0].Name != "Panou fotovoltaic 450W" {
		t.Errorf("first entry = %+v", entries[0])
	}
}

func TestProject_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	svc := core.NewProjectService(pool)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.ProjectInput{
		Name:       "Hala Industriala 50kW",
		ClientName: strPtr("SC Exemplu SRL"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != "ACTIVE" {
		t.Errorf("status = %s, want ACTIVE", created.Status)
	}

	updated, err := svc.Update(ctx, created.ID, core.ProjectInput{
		Name:   "Hala Industriala 50kW",
		Status: "COMPLETED",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != "COMPLETED" {
		t.Errorf("status = %s, want COMPLETED", updated.Status)
	}

	projects, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 2 { // seeded project plus this one
		t.Errorf("projects = %d, want 2", len(projects))
	}

	if _, err := svc.Create(ctx, core.ProjectInput{Name: "X", Status: "IMAGINARY"}); err == nil {
		t.Error("expected error for unknown status")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestProject_DeleteReferencedRejected(t *testing.T) {
	pool := setupTestDB(t)
	projects := core.NewProjectService(pool)
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	projectID := 1 // seeded project
	if _, err := ledger.Append(ctx, core.MovementInput{
		MaterialID: 1,
		Change:     decimal.NewFromInt(-2),
		Kind:       core.MovementProjectOut,
		ProjectID:  &projectID,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := projects.Delete(ctx, projectID); !errors.Is(err, core.ErrInUse) {
		t.Errorf("Delete = %v, want ErrInUse", err)
	}
}
