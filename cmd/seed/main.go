// Command seed populates the database with fake bookings for local
// dashboard development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/medagg/patient-connect/internal/patients"
)

var healthIssues = []string{
	"knee pain",
	"back pain",
	"migraine",
	"chest discomfort",
	"skin rash",
	"fever and cough",
	"stomach ache",
	"joint stiffness",
}

var severities = []string{
	patients.SeverityHigh,
	patients.SeverityModerate,
	patients.SeverityLow,
}

func main() {
	count := flag.Int("count", 20, "number of patients to create")
	flag.Parse()

	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	repo := patients.NewPostgresRepository(pool)
	faker := gofakeit.New(0)

	for i := 0; i < *count; i++ {
		req := &patients.CreatePatientRequest{
			Name:            faker.Name(),
			Phone:           fmt.Sprintf("+91%d", faker.Number(6000000000, 9999999999)),
			HealthIssue:     healthIssues[faker.Number(0, len(healthIssues)-1)],
			Severity:        severities[faker.Number(0, len(severities)-1)],
			AppointmentDate: time.Now().AddDate(0, 0, faker.Number(1, 30)).Format("2006-01-02"),
		}
		patient, err := repo.Create(ctx, req)
		if err != nil {
			log.Fatalf("create patient: %v", err)
		}
		fmt.Printf("created %s (%s, %s)\n", patient.Name, patient.Severity, patient.AppointmentDate)
	}

	fmt.Printf("seeded %d patients\n", *count)
}
