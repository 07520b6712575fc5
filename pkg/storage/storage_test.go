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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/studyagent/pkg/config"
)

func newTestPool(t *testing.T) (*DBPool, *config.DatabaseConfig) {
	t.Helper()
	cfg := &config.DatabaseConfig{Driver: "sqlite"}
	cfg.SetDefaults()
	pool := NewDBPool()
	t.Cleanup(func() { _ = pool.Close() })
	return pool, cfg
}

func TestDBPool_SharesConnections(t *testing.T) {
	pool, cfg := newTestPool(t)

	a, err := pool.Get(context.Background(), cfg)
	require.NoError(t, err)
	b, err := pool.Get(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, pool.Close())
	c, err := pool.Get(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, Rebind("sqlite", q))
	assert.Equal(t, q, Rebind("mysql", q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", Rebind("postgres", q))
}

func TestCheckDialect(t *testing.T) {
	assert.NoError(t, CheckDialect("sqlite"))
	assert.Error(t, CheckDialect("sqlite3"))
}

func TestTelemetryStore(t *testing.T) {
	pool, cfg := newTestPool(t)
	ctx := context.Background()

	db, err := pool.Get(ctx, cfg)
	require.NoError(t, err)

	store, err := NewTelemetryStore(db, cfg.Dialect())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, ToolCall{
		Tool: "search-tool", Agent: "research", Resource: "student-1",
		DurationMS: 120, CreatedAt: base,
	}))
	require.NoError(t, store.Record(ctx, ToolCall{
		Tool: "gen-pdf-tool", DurationMS: 900, Status: StatusError,
		Error: "missing required configuration: SMITHERY_API_KEY", CreatedAt: base.Add(time.Minute),
	}))

	calls, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, "gen-pdf-tool", calls[0].Tool)
	assert.Equal(t, StatusError, calls[0].Status)
	assert.Contains(t, calls[0].Error, "SMITHERY_API_KEY")

	assert.Equal(t, "search-tool", calls[1].Tool)
	assert.Equal(t, StatusOK, calls[1].Status)
	assert.Equal(t, "research", calls[1].Agent)
	assert.Equal(t, int64(120), calls[1].DurationMS)
	assert.NotEmpty(t, calls[1].ID)
	assert.True(t, base.Equal(calls[1].CreatedAt))

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	assert.Error(t, store.Record(ctx, ToolCall{}))
}

func TestNewTelemetryStore_Errors(t *testing.T) {
	_, err := NewTelemetryStore(nil, "sqlite")
	assert.Error(t, err)
}
