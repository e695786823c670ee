package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curelink/booking-engine/internal/db"
)

// The simulator drives the booking API with concurrent patients fighting for
// the same slots, to observe conflict rates and latencies under contention.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ApproveRatio float64
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
}

type SlotTarget struct {
	DoctorID    uuid.UUID
	ScheduledAt time.Time
}

type DataPool struct {
	Patients []uuid.UUID
	Slots    []SlotTarget

	mu       sync.RWMutex
	bookings []int64
}

func (dp *DataPool) AddBooking(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, id)
}

func (dp *DataPool) RandomBooking() (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return 0, false
	}
	return dp.bookings[rand.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags)
	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	data, err := loadDataPool(context.Background(), pool, cfg)
	pool.Close()
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d patients and %d slot targets", len(data.Patients), len(data.Slots))

	bookMetrics := &OperationMetrics{}
	approveMetrics := &OperationMetrics{}
	readMetrics := &OperationMetrics{}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(runCtx, client, cfg, data, bookMetrics, approveMetrics, readMetrics)
		}()
	}

	wg.Wait()

	report("book", bookMetrics)
	report("approve", approveMetrics)
	report("read", readMetrics)
}

func worker(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, book, approve, read *OperationMetrics) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		roll := rand.Float64()
		switch {
		case roll < cfg.BookingRatio:
			doBook(ctx, client, cfg, data, book)
		case roll < cfg.BookingRatio+cfg.ApproveRatio:
			doApprove(ctx, client, cfg, data, approve)
		default:
			doRead(ctx, client, cfg, data, read)
		}
	}
}

func doBook(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, m *OperationMetrics) {
	patient := data.Patients[rand.Intn(len(data.Patients))]
	target := data.Slots[rand.Intn(len(data.Slots))]

	body, _ := json.Marshal(map[string]any{
		"patient_id":   patient.String(),
		"doctor_id":    target.DoctorID.String(),
		"scheduled_at": target.ScheduledAt.Format(time.RFC3339),
		"type":         "physical",
	})

	start := time.Now()
	resp, err := post(ctx, client, cfg.APIBaseURL+"/bookings", body)
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, false, false)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
			data.AddBooking(created.ID)
		}
		m.Record(latency, true, false)
	case http.StatusConflict:
		m.Record(latency, false, true)
	default:
		m.Record(latency, false, false)
	}
}

func doApprove(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, m *OperationMetrics) {
	id, ok := data.RandomBooking()
	if !ok {
		return
	}

	body, _ := json.Marshal(map[string]any{"status": "booked"})

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, fmt.Sprintf("%s/bookings/%d/status", cfg.APIBaseURL, id), bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, false, false)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		m.Record(latency, true, false)
	case http.StatusConflict:
		m.Record(latency, false, true)
	default:
		m.Record(latency, false, false)
	}
}

func doRead(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, m *OperationMetrics) {
	target := data.Slots[rand.Intn(len(data.Slots))]
	url := fmt.Sprintf("%s/doctors/%s/availability?date=%s",
		cfg.APIBaseURL, target.DoctorID, target.ScheduledAt.Format("2006-01-02"))

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, false, false)
		return
	}
	defer drain(resp)

	m.Record(latency, resp.StatusCode == http.StatusOK, false)
}

func post(ctx context.Context, client *http.Client, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	data := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		data.Patients = append(data.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := pool.Query(ctx, `
		SELECT doctor_id, date, start_time
		FROM availability_slots
		WHERE date >= CURRENT_DATE
		ORDER BY date, start_time
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var doctorID uuid.UUID
		var date time.Time
		var start string
		if err := slotRows.Scan(&doctorID, &date, &start); err != nil {
			return nil, err
		}
		at, err := time.Parse("15:04", start)
		if err != nil {
			continue
		}
		scheduled := time.Date(date.Year(), date.Month(), date.Day(), at.Hour(), at.Minute(), 0, 0, time.UTC)
		data.Slots = append(data.Slots, SlotTarget{DoctorID: doctorID, ScheduledAt: scheduled})
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}

	if len(data.Patients) == 0 || len(data.Slots) == 0 {
		return nil, fmt.Errorf("data pool is empty, run the seeder first")
	}

	return data, nil
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   envOr("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     durationOr("SIM_DURATION", time.Minute),
		Workers:      intOr("SIM_WORKERS", 20),
		BookingRatio: floatOr("SIM_BOOKING_RATIO", 0.5),
		ApproveRatio: floatOr("SIM_APPROVE_RATIO", 0.2),
		PatientLimit: intOr("SIM_PATIENT_LIMIT", 1000),
		SlotLimit:    intOr("SIM_SLOT_LIMIT", 500),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func report(name string, m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
		name, m.Total, m.Success, m.Conflict, m.Error, avg, p50, p95)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
