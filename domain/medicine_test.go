package domain

import "testing"

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		qty  int64
		want StockStatus
	}{
		{0, StockOutOfStock},
		{1, StockCritical},
		{4, StockCritical},
		{5, StockCritical},
		{6, StockLow},
		{15, StockLow},
		{20, StockLow},
		{21, StockInStock},
		{1000, StockInStock},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.qty); got != tc.want {
			t.Errorf("DeriveStatus(%d) = %s, want %s", tc.qty, got, tc.want)
		}
	}
}

func TestDeriveStatus_Pure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if DeriveStatus(7) != StockLow {
			t.Fatal("DeriveStatus must depend on quantity alone")
		}
	}
}

func TestReorderQuantity(t *testing.T) {
	if got := ReorderQuantity(KindAntibiotic); got != 30 {
		t.Errorf("antibiotic reorder = %d, want 30", got)
	}
	if got := ReorderQuantity(MedicineKind("unknown")); got != ReorderQuantity(KindOTC) {
		t.Errorf("unknown kind should fall back to OTC, got %d", got)
	}
}

func TestValidKind(t *testing.T) {
	for _, k := range []MedicineKind{KindOTC, KindPrescription, KindAntibiotic, KindPainkiller} {
		if !ValidKind(k) {
			t.Errorf("ValidKind(%s) = false", k)
		}
	}
	if ValidKind("homeopathic") {
		t.Error("ValidKind accepted an unknown kind")
	}
}
