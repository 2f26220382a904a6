package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable is an in-memory Table.
type MemoryTable struct {
	name string

	mu     sync.Mutex
	rows   [][]any
	writes int
}

// NewMemoryTable creates an empty in-memory table.
func NewMemoryTable(name string) *MemoryTable {
	return &MemoryTable{name: name}
}

func (m *MemoryTable) RowCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *MemoryTable) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

func (m *MemoryTable) WriteRows(_ context.Context, startRow int, rows [][]any) error {
	if startRow < 1 {
		return fmt.Errorf("invalid start row %d", startRow)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	end := startRow - 1 + len(rows)
	for len(m.rows) < end {
		m.rows = append(m.rows, nil)
	}
	for i, row := range rows {
		m.rows[startRow-1+i] = append([]any(nil), row...)
	}
	m.writes++
	return nil
}

func (m *MemoryTable) Locator() string {
	return "memory://" + m.name
}

// Rows returns a copy of the table contents.
func (m *MemoryTable) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]any, len(m.rows))
	for i, row := range m.rows {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// Writes returns the number of WriteRows calls made so far.
func (m *MemoryTable) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
