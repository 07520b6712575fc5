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

package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Named is a concurrency-safe map of items keyed by a unique name.
type Named[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewNamed creates an empty Named registry.
func NewNamed[T any]() *Named[T] {
	return &Named[T]{items: make(map[string]T)}
}

// Register adds item under name. Names must be unique and non-empty.
func (r *Named[T]) Register(name string, item T) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return fmt.Errorf("%q already registered", name)
	}
	r.items[name] = item
	return nil
}

// Get returns the item registered under name.
func (r *Named[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[name]
	return item, ok
}

// Names returns the registered names in sorted order.
func (r *Named[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the items ordered by name.
func (r *Named[T]) List() []T {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]T, 0, len(names))
	for _, name := range names {
		if item, ok := r.items[name]; ok {
			items = append(items, item)
		}
	}
	return items
}

// Count returns the number of registered items.
func (r *Named[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
