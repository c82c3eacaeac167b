// Package store persists ended practice sessions in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/report"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("store: session not found")

// Store is a SQLite-backed session history.
type Store struct {
	db         *sql.DB
	logger     *slog.Logger
	classifier *scoring.Classifier
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClassifier sets the classifier used to tier history entries.
func WithClassifier(c *scoring.Classifier) Option {
	return func(s *Store) { s.classifier = c }
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.L()
	}
	if s.classifier == nil {
		s.classifier = scoring.NewClassifier(scoring.DefaultConfig())
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the session, its observations and joint scores in one
// transaction. Saving the same session again replaces it.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	sum := session.Summarize(sess)
	targets, err := json.Marshal(sess.Reference().Targets())
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"joint_scores", "observations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, sess.ID()); err != nil {
			return fmt.Errorf("replace %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sess.ID()); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}

	var endNanos int64
	if end := sess.EndTime(); !end.IsZero() {
		endNanos = end.UnixNano()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, pose, targets, start_time, end_time, count, average, best, worst)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID(), sess.Reference().Name(), string(targets),
		sess.StartTime().UnixNano(), endNanos,
		sum.Count, sum.Average, sum.Best, sum.Worst,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	obsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (session_id, seq, ts, overall, tier) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer obsStmt.Close()

	jointStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO joint_scores (session_id, seq, joint, observed, target, accuracy) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer jointStmt.Close()

	for _, o := range sess.Observations() {
		seq := o.Observation.Seq()
		if _, err := obsStmt.ExecContext(ctx, sess.ID(), seq,
			o.Observation.Timestamp().UnixNano(), o.OverallAccuracy, o.Tier.String()); err != nil {
			return fmt.Errorf("insert observation %d: %w", seq, err)
		}
		for _, js := range o.JointScores {
			if _, err := jointStmt.ExecContext(ctx, sess.ID(), seq,
				string(js.Joint), js.Observed, js.Target, js.Accuracy); err != nil {
				return fmt.Errorf("insert joint score %d/%s: %w", seq, js.Joint, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("session saved", "session", sess.ID(), "observations", sum.Count)
	return nil
}

// History returns up to limit of the most recent sessions, oldest first.
// A limit of 0 or less returns all sessions.
func (s *Store) History(ctx context.Context, limit int) ([]report.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pose, start_time, end_time, count, average, best
		FROM sessions
		ORDER BY start_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []report.HistoryEntry
	for rows.Next() {
		var (
			e          report.HistoryEntry
			start, end int64
		)
		if err := rows.Scan(&e.SessionID, &e.Pose, &start, &end, &e.Count, &e.Average, &e.Best); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.StartTime = time.Unix(0, start).UTC()
		if end > 0 {
			e.Duration = time.Duration(end - start)
		}
		e.Tier = s.classifier.Classify(e.Average)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Load restores a saved session with all its observations.
func (s *Store) Load(ctx context.Context, id string) (*session.Session, error) {
	var (
		name, targetsJSON string
		start, end        int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT pose, targets, start_time, end_time FROM sessions WHERE id = ?`, id,
	).Scan(&name, &targetsJSON, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var targets map[pose.JointID]float64
	if err := json.Unmarshal([]byte(targetsJSON), &targets); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}

	obs, err := s.loadObservations(ctx, id)
	if err != nil {
		return nil, err
	}

	var endTime time.Time
	if end > 0 {
		endTime = time.Unix(0, end).UTC()
	}
	return session.Restore(id, pose.NewReferencePose(name, targets), time.Unix(0, start).UTC(), endTime, obs), nil
}

func (s *Store) loadObservations(ctx context.Context, id string) ([]pose.ScoredObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.seq, o.ts, o.overall, o.tier, j.joint, j.observed, j.target, j.accuracy
		FROM observations o
		LEFT JOIN joint_scores j ON j.session_id = o.session_id AND j.seq = o.seq
		WHERE o.session_id = ?
		ORDER BY o.seq, j.rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	type pending struct {
		seq     uint64
		ts      int64
		overall float64
		tier    pose.FeedbackTier
		scores  []pose.JointScore
	}
	var (
		out []pose.ScoredObservation
		cur *pending
	)
	flush := func() {
		if cur == nil {
			return
		}
		angles := make(map[pose.JointID]float64, len(cur.scores))
		for _, js := range cur.scores {
			angles[js.Joint] = js.Observed
		}
		out = append(out, pose.ScoredObservation{
			Observation:     pose.NewObservation(cur.seq, time.Unix(0, cur.ts).UTC(), angles),
			JointScores:     cur.scores,
			OverallAccuracy: cur.overall,
			Tier:            cur.tier,
		})
	}

	for rows.Next() {
		var (
			seq      uint64
			ts       int64
			overall  float64
			tierName string
			joint    sql.NullString
			observed sql.NullFloat64
			target   sql.NullFloat64
			accuracy sql.NullFloat64
		)
		if err := rows.Scan(&seq, &ts, &overall, &tierName, &joint, &observed, &target, &accuracy); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if cur == nil || cur.seq != seq {
			flush()
			tier, err := pose.ParseTier(tierName)
			if err != nil {
				return nil, err
			}
			cur = &pending{seq: seq, ts: ts, overall: overall, tier: tier}
		}
		if joint.Valid {
			cur.scores = append(cur.scores, pose.JointScore{
				Joint:    pose.JointID(joint.String),
				Observed: observed.Float64,
				Target:   target.Float64,
				Accuracy: accuracy.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// Series returns the time series of a saved session.
func (s *Store) Series(ctx context.Context, id string) ([]report.SeriesPoint, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.ToTimeSeries(sess), nil
}
