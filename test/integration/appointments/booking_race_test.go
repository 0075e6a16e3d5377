package integrationtests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	appointmenterrors "clinicbook/internal/appointments/errors"
	"clinicbook/internal/appointments/repository"
	mongoMigration "clinicbook/internal/migrations/mongo"
	"clinicbook/pkg/client"
	"clinicbook/pkg/config"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/test/integration/testutil"
)

const (
	doctorID   = "507f1f77bcf86cd799439011"
	scheduleID = "507f1f77bcf86cd799439021"
)

func newTestRepository(m *testutil.MongoHelper) repository.AppointmentRepository {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "appointments-integration-tests",
	})

	cfg := &config.Config{
		MongoDatabaseName: m.DBName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               log,
		Client:            &client.Client{Mongo: m.Client},
	}
	return repository.NewMongoAppointmentRepository(cfg)
}

func patientHex(i int) string {
	return fmt.Sprintf("5f1f77bcf86cd7994390%04d", i)
}

// Two requests for the same (doctor, schedule, time) triple must resolve
// to exactly one stored appointment, with every loser surfacing
// ErrSlotTaken. The unique index is the only arbiter; nothing above the
// repository serializes the writes.
func TestConcurrentBookingsSingleWinner(t *testing.T) {
	m := testutil.NewMongoHelper(t)
	defer m.Close(t)

	ctx := context.Background()
	if err := mongoMigration.RunMigration(ctx, m.Client, m.DBName); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	m.CleanCollection(t, repository.CollectionName)

	repo := newTestRepository(m)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appt := &model.Appointment{
				DoctorID:        doctorID,
				PatientID:       patientHex(i),
				ScheduleID:      scheduleID,
				AppointmentTime: "09:30",
				Status:          model.StatusPending,
			}
			results[i] = repo.Create(ctx, appt)
		}(i)
	}
	wg.Wait()

	var wins, taken int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, appointmenterrors.ErrSlotTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("%d inserts claimed the slot, want exactly 1", wins)
	}
	if taken != attempts-1 {
		t.Errorf("%d inserts rejected as taken, want %d", taken, attempts-1)
	}
	if count := m.CountDocuments(t, repository.CollectionName); count != 1 {
		t.Errorf("collection holds %d appointments, want 1", count)
	}
}

func TestConcurrentBookingsOnDistinctSlotsAllSucceed(t *testing.T) {
	m := testutil.NewMongoHelper(t)
	defer m.Close(t)

	ctx := context.Background()
	if err := mongoMigration.RunMigration(ctx, m.Client, m.DBName); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	m.CleanCollection(t, repository.CollectionName)

	repo := newTestRepository(m)

	times := []string{"09:00", "09:30", "10:00", "10:30"}
	var wg sync.WaitGroup
	results := make([]error, len(times))

	for i, at := range times {
		wg.Add(1)
		go func(i int, at string) {
			defer wg.Done()
			appt := &model.Appointment{
				DoctorID:        doctorID,
				PatientID:       patientHex(i),
				ScheduleID:      scheduleID,
				AppointmentTime: at,
				Status:          model.StatusPending,
			}
			results[i] = repo.Create(ctx, appt)
		}(i, at)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Errorf("booking %s failed: %v", times[i], err)
		}
	}
	if count := m.CountDocuments(t, repository.CollectionName); count != int64(len(times)) {
		t.Errorf("collection holds %d appointments, want %d", count, len(times))
	}
}
