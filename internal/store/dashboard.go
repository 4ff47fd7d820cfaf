package store

import (
	"context"
	"time"

	"pharmatrack/m/domain"
)

// DashboardStats is the summary the dashboard endpoint serves.
type DashboardStats struct {
	Medicines          int64 `db:"medicines" json:"medicines"`
	Patients           int64 `db:"patients" json:"patients"`
	Doctors            int64 `db:"doctors" json:"doctors"`
	Suppliers          int64 `db:"suppliers" json:"suppliers"`
	Prescriptions      int64 `db:"prescriptions" json:"prescriptions"`
	PendingOrders      int64 `db:"pending_orders" json:"pending_orders"`
	LowStockCount      int64 `db:"low_stock_count" json:"low_stock_count"`
	ExpiringSoonCount  int64 `db:"expiring_soon_count" json:"expiring_soon_count"`
	TodayRevenueCents  int64 `db:"today_revenue_cents" json:"today_revenue_cents"`
	TodayTransactions  int64 `db:"today_transactions" json:"today_transactions"`
}

// Dashboard aggregates counts and today's revenue. Cancelled transactions do
// not count towards revenue.
func (s *Store) Dashboard(ctx context.Context, expiryDays int) (DashboardStats, error) {
	var stats DashboardStats
	today := time.Now().Format("2006-01-02")
	cutoff := time.Now().AddDate(0, 0, expiryDays).Format("2006-01-02")
	err := s.db.GetContext(ctx, &stats, `SELECT
		(SELECT COUNT(*) FROM medicines) AS medicines,
		(SELECT COUNT(*) FROM patients) AS patients,
		(SELECT COUNT(*) FROM doctors) AS doctors,
		(SELECT COUNT(*) FROM suppliers) AS suppliers,
		(SELECT COUNT(*) FROM prescriptions) AS prescriptions,
		(SELECT COUNT(*) FROM orders WHERE status = ?) AS pending_orders,
		(SELECT COUNT(*) FROM medicines WHERE stock_status IN (?, ?)) AS low_stock_count,
		(SELECT COUNT(*) FROM medicines WHERE expiry_date IS NOT NULL AND expiry_date <= ?) AS expiring_soon_count,
		(SELECT COALESCE(SUM(total_cents), 0) FROM transactions WHERE date = ? AND status != ?) AS today_revenue_cents,
		(SELECT COUNT(*) FROM transactions WHERE date = ?) AS today_transactions`,
		domain.OrderPending, domain.StockLow, domain.StockCritical, cutoff, today, domain.TransactionCancelled, today)
	return stats, err
}
