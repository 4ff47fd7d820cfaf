package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pharmatrack/m/internal/api"
	"pharmatrack/m/internal/config"
	"pharmatrack/m/internal/database"
	"pharmatrack/m/internal/inventory"
	"pharmatrack/m/internal/migrations"
	"pharmatrack/m/internal/notify"
	"pharmatrack/m/internal/scheduler"
	"pharmatrack/m/internal/seed"
	"pharmatrack/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	db := database.Connect(cfg.DatabasePath)
	defer db.Close()

	migrations.Run(db)
	seed.LoadMedicines(db, "assets/medicines.csv", log)

	st := store.New(db)
	events := notify.NewDispatcher(notify.LogSink{Log: log}, log, 64)
	defer events.Close()

	inv := inventory.New(st, events, log)

	sched, err := scheduler.Start(st, events, log, cfg.ExpirySweep, cfg.ExpiryDays)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to start expiry sweep")
	}
	defer sched.Stop()

	handler := api.New(st, inv, events, cfg.Secret, log)

	log.Info().Str("port", cfg.HTTPPort).Msg("PharmaTrack server starting")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
