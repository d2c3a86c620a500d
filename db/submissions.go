package db

import (
	"context"
	"fmt"
	"time"
)

// Submission is one funnel run's persisted record.
type Submission struct {
	ID           int       `json:"id"`
	RunID        string    `json:"runId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	State        string    `json:"state"`
	VehicleCount int       `json:"vehicleCount"`
	DriverCount  int       `json:"driverCount"`
	Success      bool      `json:"success"`
	CurrentStage string    `json:"currentStage"`
	Message      string    `json:"message"`
	QuotesFound  int       `json:"quotesFound"`
	BestPrice    string    `json:"bestPrice,omitempty"`
	Error        string    `json:"error,omitempty"`
	ProcessingMs int64     `json:"processingMs"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// SaveSubmission persists one completed run.
func (d *DB) SaveSubmission(ctx context.Context, s Submission) error {
	if d == nil {
		return fmt.Errorf("db: not configured")
	}
	_, err := d.pool.ExecContext(ctx,
		`INSERT INTO quote_submissions
            (run_id, first_name, last_name, email, phone, state,
             vehicle_count, driver_count, success, current_stage, message,
             quotes_found, best_price, error, processing_ms)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		s.RunID, s.FirstName, s.LastName, s.Email, s.Phone, s.State,
		s.VehicleCount, s.DriverCount, s.Success, s.CurrentStage, s.Message,
		s.QuotesFound, s.BestPrice, s.Error, s.ProcessingMs)
	if err != nil {
		return fmt.Errorf("db: save submission: %w", err)
	}
	return nil
}

// GetHistory returns the most recent submissions, newest first.
func (d *DB) GetHistory(ctx context.Context, limit int) ([]Submission, error) {
	if d == nil {
		return nil, fmt.Errorf("db: not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := d.pool.QueryContext(ctx,
		`SELECT id, run_id, first_name, last_name, email, phone, state,
                vehicle_count, driver_count, success, current_stage, message,
                quotes_found, COALESCE(best_price, ''), COALESCE(error, ''),
                processing_ms, submitted_at
         FROM quote_submissions
         ORDER BY submitted_at DESC
         LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("db: history query: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.RunID, &s.FirstName, &s.LastName, &s.Email,
			&s.Phone, &s.State, &s.VehicleCount, &s.DriverCount, &s.Success,
			&s.CurrentStage, &s.Message, &s.QuotesFound, &s.BestPrice,
			&s.Error, &s.ProcessingMs, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("db: scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
