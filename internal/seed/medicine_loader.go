package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"pharmatrack/m/domain"
)

// LoadMedicines ingests the CSV catalog into the medicines table, ignoring
// rows whose name already exists. Expected columns:
// name,category,kind,unit_price_cents,stock_quantity,expiry_date,batch_number
func LoadMedicines(db *sqlx.DB, csvPath string, log zerolog.Logger) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Warn().Err(err).Str("path", csvPath).Msg("no medicine catalog to seed")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Error().Err(err).Msg("unable to read medicine header")
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Error().Err(err).Msg("unable to start medicine transaction")
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO medicines (name, category, kind, unit_price_cents, stock_quantity, stock_status, expiry_date, batch_number)
		SELECT ?, ?, ?, ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM medicines WHERE name = ?)`)
	if err != nil {
		log.Error().Err(err).Msg("unable to prepare medicine insert")
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("unable to read medicine row")
			continue
		}
		if len(record) < 5 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		category := strings.TrimSpace(record[1])
		kind := domain.MedicineKind(strings.TrimSpace(record[2]))
		if !domain.ValidKind(kind) {
			kind = domain.KindOTC
		}
		price, _ := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		quantity, _ := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if quantity < 0 {
			quantity = 0
		}
		var expiry, batch *string
		if len(record) > 5 {
			if v := strings.TrimSpace(record[5]); v != "" {
				expiry = &v
			}
		}
		if len(record) > 6 {
			if v := strings.TrimSpace(record[6]); v != "" {
				batch = &v
			}
		}

		status := domain.DeriveStatus(quantity)
		if _, err := stmt.Exec(name, category, kind, price, quantity, status, expiry, batch, name); err != nil {
			log.Warn().Err(err).Str("medicine", name).Msg("unable to insert medicine")
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("unable to commit medicine seed")
		return
	}
	log.Info().Int("rows", rows).Msg("seeded medicine catalog")
}
