package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"pharmatrack/m/domain"
)

func TestCreateMedicine_DerivesStatus(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	cases := []struct {
		qty  int64
		want domain.StockStatus
	}{
		{0, domain.StockOutOfStock},
		{3, domain.StockCritical},
		{12, domain.StockLow},
		{25, domain.StockInStock},
	}
	for _, tc := range cases {
		med, err := s.CreateMedicine(ctx, NewMedicine{Name: "Med", StockQuantity: tc.qty, UnitPriceCents: 100})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if med.StockStatus != tc.want {
			t.Errorf("qty %d: status = %s, want %s", tc.qty, med.StockStatus, tc.want)
		}
	}
}

func TestCreateMedicine_Invalid(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.CreateMedicine(ctx, NewMedicine{Name: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name: err = %v, want ErrInvalid", err)
	}
	if _, err := s.CreateMedicine(ctx, NewMedicine{Name: "X", StockQuantity: -1}); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative quantity: err = %v, want ErrInvalid", err)
	}
	if _, err := s.CreateMedicine(ctx, NewMedicine{Name: "X", Kind: "tincture"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad kind: err = %v, want ErrInvalid", err)
	}
}

func TestUpdateMedicine_QuantityRecomputesStatus(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	med, err := s.CreateMedicine(ctx, NewMedicine{Name: "Ibuprofen", StockQuantity: 25, UnitPriceCents: 499})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	qty := int64(4)
	updated, err := s.UpdateMedicine(ctx, med.ID, MedicinePatch{StockQuantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StockQuantity != 4 || updated.StockStatus != domain.StockCritical {
		t.Errorf("got qty=%d status=%s, want 4/critical", updated.StockQuantity, updated.StockStatus)
	}
}

func TestUpdateMedicine_PartialPatch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	med, err := s.CreateMedicine(ctx, NewMedicine{Name: "Amoxicillin", Category: "antibiotics", Kind: domain.KindAntibiotic, StockQuantity: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := "Amoxicillin 500mg"
	updated, err := s.UpdateMedicine(ctx, med.ID, MedicinePatch{Name: &name})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %q, want %q", updated.Name, name)
	}
	if updated.StockQuantity != 30 || updated.Category != "antibiotics" {
		t.Error("patch touched fields it should have left alone")
	}
}

func TestUpdateMedicine_NotFound(t *testing.T) {
	s := testStore(t)
	name := "x"
	if _, err := s.UpdateMedicine(context.Background(), 9999, MedicinePatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteMedicine(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	med, err := s.CreateMedicine(ctx, NewMedicine{Name: "Gone", StockQuantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteMedicine(ctx, med.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetMedicine(ctx, med.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteMedicine(ctx, med.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestListMedicines_Filters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, m := range []NewMedicine{
		{Name: "Paracetamol", Category: "painkillers", Kind: domain.KindPainkiller, StockQuantity: 40},
		{Name: "Paracetamol Extra", Category: "painkillers", Kind: domain.KindPainkiller, StockQuantity: 10},
		{Name: "Cetirizine", Category: "allergy", StockQuantity: 50},
	} {
		if _, err := s.CreateMedicine(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byName, err := s.ListMedicines(ctx, MedicineFilter{Name: "Paracetamol"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byName) != 2 {
		t.Errorf("name filter returned %d rows, want 2", len(byName))
	}
	byCategory, err := s.ListMedicines(ctx, MedicineFilter{Category: "allergy"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Name != "Cetirizine" {
		t.Errorf("category filter wrong: %+v", byCategory)
	}
}

func TestLowStockMedicines_Exact(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mk := func(name string, qty int64) {
		if _, err := s.CreateMedicine(ctx, NewMedicine{Name: name, StockQuantity: qty}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	mk("plenty", 100)  // in_stock
	mk("low", 15)      // low_stock
	mk("critical", 2)  // critical
	mk("empty", 0)     // out_of_stock, not part of low stock view

	got, err := s.LowStockMedicines(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	names := map[string]bool{}
	for _, m := range got {
		names[m.Name] = true
	}
	if len(got) != 2 || !names["low"] || !names["critical"] {
		t.Errorf("low stock view = %v, want exactly {low, critical}", names)
	}
}

func TestExpiringMedicines_Boundary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	day := func(offset int) *string {
		d := time.Now().AddDate(0, 0, offset).Format("2006-01-02")
		return &d
	}
	mk := func(name string, expiry *string) {
		if _, err := s.CreateMedicine(ctx, NewMedicine{Name: name, StockQuantity: 5, ExpiryDate: expiry}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	mk("soon", day(29))
	mk("later", day(31))
	mk("expired", day(-3))
	mk("no-expiry", nil)

	got, err := s.ExpiringMedicines(ctx, 30)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	names := map[string]bool{}
	for _, m := range got {
		names[m.Name] = true
	}
	if !names["soon"] {
		t.Error("medicine expiring at today+29 should be included at days=30")
	}
	if names["later"] {
		t.Error("medicine expiring at today+31 should not be included at days=30")
	}
	if !names["expired"] {
		t.Error("already-expired medicine should be included")
	}
	if names["no-expiry"] {
		t.Error("medicine without expiry date should not be included")
	}
}
