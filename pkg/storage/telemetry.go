// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tool call outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ToolCall is one recorded tool invocation.
type ToolCall struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Agent      string    `json:"agent,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	DurationMS int64     `json:"durationMs"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TelemetryStore persists tool invocations.
type TelemetryStore struct {
	db      *sql.DB
	dialect string
}

// NewTelemetryStore creates a store. Call Migrate before use.
func NewTelemetryStore(db *sql.DB, dialect string) (*TelemetryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := CheckDialect(dialect); err != nil {
		return nil, err
	}
	return &TelemetryStore{db: db, dialect: dialect}, nil
}

const createToolCallsSQL = `
CREATE TABLE IF NOT EXISTS tool_calls (
    id VARCHAR(64) NOT NULL PRIMARY KEY,
    tool VARCHAR(255) NOT NULL,
    agent VARCHAR(255) NOT NULL DEFAULT '',
    resource VARCHAR(255) NOT NULL DEFAULT '',
    duration_ms BIGINT NOT NULL,
    status VARCHAR(16) NOT NULL,
    error TEXT,
    created_at TIMESTAMP NOT NULL
)`

// Migrate creates the tool_calls table.
func (s *TelemetryStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createToolCallsSQL); err != nil {
		return fmt.Errorf("failed to create tool_calls table: %w", err)
	}
	return nil
}

// Record stores call, assigning an ID and timestamp when missing.
func (s *TelemetryStore) Record(ctx context.Context, call ToolCall) error {
	if call.Tool == "" {
		return fmt.Errorf("tool name is required")
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	if call.Status == "" {
		call.Status = StatusOK
	}

	query := Rebind(s.dialect, `
INSERT INTO tool_calls (id, tool, agent, resource, duration_ms, status, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		call.ID, call.Tool, call.Agent, call.Resource, call.DurationMS,
		call.Status, call.Error, call.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// List returns up to limit calls, newest first. A non-positive limit
// returns 100.
func (s *TelemetryStore) List(ctx context.Context, limit int) ([]ToolCall, error) {
	if limit <= 0 {
		limit = 100
	}

	query := Rebind(s.dialect, `
SELECT id, tool, agent, resource, duration_ms, status, error, created_at
FROM tool_calls
ORDER BY created_at DESC
LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool calls: %w", err)
	}
	defer rows.Close()

	calls := []ToolCall{}
	for rows.Next() {
		var (
			call   ToolCall
			errMsg sql.NullString
		)
		if err := rows.Scan(&call.ID, &call.Tool, &call.Agent, &call.Resource,
			&call.DurationMS, &call.Status, &errMsg, &call.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		call.Error = errMsg.String
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tool calls: %w", err)
	}
	return calls, nil
}
