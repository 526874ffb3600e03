package tracker

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// RecordInput is the user-supplied part of a record.
type RecordInput struct {
	Date     domain.Date `json:"date"`
	Value    float64     `json:"value"`
	TaskType string      `json:"task_type,omitempty"`
	Notes    string      `json:"notes,omitempty"`
}

// RecordResult is a written record plus what it triggered.
type RecordResult struct {
	Record  domain.RecordEntry `json:"record"`
	Outcome *Outcome           `json:"outcome"`
}

// RecordFilter narrows ListRecords. Zero values match everything.
type RecordFilter struct {
	Range  *domain.DateRange
	TaskID string
	Limit  int
}

// AddRecord logs a record and pays any reward it unlocks.
func (s *Service) AddRecord(ctx context.Context, userID string, in RecordInput) (*RecordResult, error) {
	var res RecordResult
	err := s.withUser(ctx, userID, func(tx *txn) error {
		if err := s.validateRecord(&in, tx.state, tx.today); err != nil {
			return err
		}
		o := s.begin(tx)

		rec := domain.RecordEntry{
			ID:       s.newID(),
			Date:     in.Date,
			Value:    in.Value,
			TaskType: in.TaskType,
			Notes:    in.Notes,
		}
		tx.touchRecords()
		tx.state.Records = append(tx.state.Records, rec)

		res = RecordResult{Record: rec, Outcome: s.settle(tx, o)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsLogged.WithLabelValues("add").Inc()
	metrics.ValueLogged.Add(in.Value)
	s.log.Debug("record added",
		zap.String("user", userID),
		zap.String("task", in.TaskType),
		zap.Float64("value", in.Value),
	)
	return &res, nil
}

// UpdateRecord replaces a record's fields, keeping its ID.
func (s *Service) UpdateRecord(ctx context.Context, userID, recordID string, in RecordInput) (*RecordResult, error) {
	var res RecordResult
	err := s.withUser(ctx, userID, func(tx *txn) error {
		i := findRecord(tx.state.Records, recordID)
		if i < 0 {
			return domain.ErrRecordNotFound
		}
		if err := s.validateRecord(&in, tx.state, tx.today); err != nil {
			return err
		}
		o := s.begin(tx)

		tx.touchRecords()
		rec := &tx.state.Records[i]
		rec.Date = in.Date
		rec.Value = in.Value
		rec.TaskType = in.TaskType
		rec.Notes = in.Notes

		res = RecordResult{Record: *rec, Outcome: s.settle(tx, o)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordsLogged.WithLabelValues("update").Inc()
	return &res, nil
}

// DeleteRecord removes a record. Rewards already paid are kept.
func (s *Service) DeleteRecord(ctx context.Context, userID, recordID string) error {
	err := s.withUser(ctx, userID, func(tx *txn) error {
		i := findRecord(tx.state.Records, recordID)
		if i < 0 {
			return domain.ErrRecordNotFound
		}
		tx.touchRecords()
		tx.state.Records = append(tx.state.Records[:i], tx.state.Records[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordsLogged.WithLabelValues("delete").Inc()
	return nil
}

// ListRecords returns matching records, newest first.
func (s *Service) ListRecords(ctx context.Context, userID string, f RecordFilter) ([]domain.RecordEntry, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecordEntry, 0, len(state.Records))
	for _, r := range state.Records {
		if f.Range != nil && !f.Range.Contains(r.Date) {
			continue
		}
		if f.TaskID != "" && r.TaskType != f.TaskID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func findRecord(records []domain.RecordEntry, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
