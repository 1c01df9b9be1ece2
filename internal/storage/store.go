package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/models"
	"github.com/dyike/StockPilot/pkg/sqlite"
)

var (
	ErrNotFound      = errors.New("run not found")
	ErrAmbiguousID   = errors.New("run id prefix matches more than one run")
	ErrAlreadyStored = errors.New("run already stored")
)

const defaultListLimit = 50

// Store persists decision records. Records are written once and never updated.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// tool_calls_json holds the assistant's []schema.ToolCall as JSON.
func (s *Store) initTables() error {
	query := `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    request TEXT NOT NULL DEFAULT '',
    stock_name TEXT NOT NULL DEFAULT '',
    fundamental_analysis TEXT NOT NULL DEFAULT '',
    technical_analysis TEXT NOT NULL DEFAULT '',
    decision TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL DEFAULT 'unknown',
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    tool_call_id TEXT NOT NULL DEFAULT '',
    tool_name TEXT NOT NULL DEFAULT '',
    tool_calls_json TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    UNIQUE(run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) SaveRecord(ctx context.Context, rec *models.DecisionRecord) (err error) {
	if rec == nil || strings.TrimSpace(rec.RunID) == "" {
		return errors.New("record with a run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, request, stock_name, fundamental_analysis, technical_analysis, decision, action, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`, rec.RunID, rec.Request, rec.StockName, rec.FundamentalAnalysis, rec.TechnicalAnalysis, rec.Decision, string(rec.Action), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyStored, rec.RunID)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO messages (run_id, seq, role, content, tool_call_id, tool_name, tool_calls_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range rec.Messages {
		if msg == nil {
			continue
		}
		var toolCallsJSON string
		if len(msg.ToolCalls) > 0 {
			data, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("marshal tool calls: %w", err)
			}
			toolCallsJSON = string(data)
		}
		if _, err := stmt.ExecContext(ctx, rec.RunID, i+1, string(msg.Role), msg.Content,
			msg.ToolCallID, msg.ToolName, toolCallsJSON, rec.CreatedAt); err != nil {
			return fmt.Errorf("insert message %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRecord loads a run by id, or by a unique id prefix.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.DecisionRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	runID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		rec    models.DecisionRecord
		action string
	)
	err = s.db.QueryRowContext(ctx, `
SELECT id, request, stock_name, fundamental_analysis, technical_analysis, decision, action, created_at
FROM runs WHERE id = ?
`, runID).Scan(&rec.RunID, &rec.Request, &rec.StockName, &rec.FundamentalAnalysis,
		&rec.TechnicalAnalysis, &rec.Decision, &action, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	rec.Action = models.Action(action)

	msgs, err := s.loadMessages(ctx, runID)
	if err != nil {
		return nil, err
	}
	rec.Messages = msgs
	return &rec, nil
}

func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`,
		id, stripLikeWildcards(id)+"%", id)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, got)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}

	switch {
	case len(ids) == 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case ids[0] == id, len(ids) == 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

func stripLikeWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

func (s *Store) loadMessages(ctx context.Context, runID string) ([]*schema.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT role, content, tool_call_id, tool_name, tool_calls_json
FROM messages WHERE run_id = ? ORDER BY seq ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*schema.Message
	for rows.Next() {
		var (
			role, toolCallsJSON string
			msg                 schema.Message
		)
		if err := rows.Scan(&role, &msg.Content, &msg.ToolCallID, &msg.ToolName, &toolCallsJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = schema.RoleType(role)
		if toolCallsJSON != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// ListRecords returns run summaries, newest first.
func (s *Store) ListRecords(ctx context.Context, params models.HistoryParams) ([]models.RunRecord, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
SELECT id, request, stock_name, fundamental_analysis, technical_analysis, decision, action, created_at
FROM runs`
	args := []any{}
	if sym := strings.TrimSpace(params.Symbol); sym != "" {
		query += ` WHERE stock_name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+stripLikeWildcards(sym)+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		if err := rows.Scan(&r.Id, &r.Request, &r.StockName, &r.FundamentalAnalysis,
			&r.TechnicalAnalysis, &r.Decision, &r.Action, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
