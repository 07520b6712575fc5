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

package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kadirpekel/studyagent/pkg/storage"
)

// Store persists working memory profiles keyed by scope key.
type Store struct {
	db       *sql.DB
	dialect  string
	template string
}

// NewStore creates a store over db. Profiles that were never written
// read back as template.
func NewStore(db *sql.DB, dialect, template string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := storage.CheckDialect(dialect); err != nil {
		return nil, err
	}
	if template == "" {
		template = DefaultTemplate
	}
	return &Store{db: db, dialect: dialect, template: template}, nil
}

const createWorkingMemorySQL = `
CREATE TABLE IF NOT EXISTS working_memory (
    scope_key VARCHAR(255) NOT NULL PRIMARY KEY,
    content TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// Migrate creates the working_memory table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createWorkingMemorySQL); err != nil {
		return fmt.Errorf("failed to create working_memory table: %w", err)
	}
	return nil
}

// Template returns the seed profile.
func (s *Store) Template() string {
	return s.template
}

// Get returns the stored profile, or the template when none exists.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("scope key is required")
	}

	query := storage.Rebind(s.dialect, `SELECT content FROM working_memory WHERE scope_key = ?`)

	var content string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return s.template, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get working memory: %w", err)
	}
	return content, nil
}

// Update replaces the profile stored under key.
func (s *Store) Update(ctx context.Context, key, content string) error {
	if key == "" {
		return fmt.Errorf("scope key is required")
	}

	var query string
	switch s.dialect {
	case "mysql":
		query = `
INSERT INTO working_memory (scope_key, content, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE content = VALUES(content), updated_at = VALUES(updated_at)`
	default:
		query = storage.Rebind(s.dialect, `
INSERT INTO working_memory (scope_key, content, updated_at) VALUES (?, ?, ?)
ON CONFLICT (scope_key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`)
	}

	if _, err := s.db.ExecContext(ctx, query, key, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update working memory: %w", err)
	}
	return nil
}

// Delete removes the profile so the next Get yields the template again.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := storage.Rebind(s.dialect, `DELETE FROM working_memory WHERE scope_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete working memory: %w", err)
	}
	return nil
}
