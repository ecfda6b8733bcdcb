// Package compressor shrinks the sparse two-dimensional tables of a parsing automaton.
package compressor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyTable  = errors.New("a table must have at least one entry")
	ErrColumnCount = errors.New("column count must be >= 1")
	ErrOutOfRange  = errors.New("indexes are out of range")
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	if colCount <= 0 {
		return nil, ErrColumnCount
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

type Compressor interface {
	Compress(orig *OriginalTable) error

	// Lookup returns an entry and checks the indexes.
	Lookup(row, col int) (int, error)

	// Get returns an entry without checking the indexes. The parsers call it on every token.
	Get(row, col int) int

	OriginalTableSize() (int, int)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
)

// UniqueEntriesTable stores each distinct row once. Automata built by state merging have many identical
// rows, such as the rows of states that only reduce.
type UniqueEntriesTable struct {
	UniqueEntries    []int
	RowNums          []int
	OriginalRowCount int
	OriginalColCount int
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("%w: [%v, %v]", ErrOutOfRange, row, col)
	}
	return tab.Get(row, col), nil
}

func (tab *UniqueEntriesTable) Get(row, col int) int {
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col]
}

func (tab *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	key2RowNum := map[string]int{}
	buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
	for row := 0; row < orig.rowCount; row++ {
		start := row * orig.colCount
		cells := orig.entries[start : start+orig.colCount]

		buf = buf[:0]
		for _, v := range cells {
			buf = binary.AppendVarint(buf, int64(v))
		}
		key := string(buf)

		rowNum, ok := key2RowNum[key]
		if !ok {
			rowNum = len(key2RowNum)
			key2RowNum[key] = rowNum
			uniqueEntries = append(uniqueEntries, cells...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.RowNums = rowNums
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

// ForbiddenValue marks a slot of RowDisplacementTable.Bounds no row owns.
const ForbiddenValue = -1

// RowDisplacementTable overlays the rows on one array so that the non-empty entries of different rows
// never share a slot. Bounds records which row owns each slot.
type RowDisplacementTable struct {
	OriginalRowCount int
	OriginalColCount int
	EmptyValue       int
	Entries          []int
	Bounds           []int
	RowDisplacement  []int
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("%w: [%v, %v]", ErrOutOfRange, row, col)
	}
	return tab.Get(row, col), nil
}

func (tab *RowDisplacementTable) Get(row int, col int) int {
	d := tab.RowDisplacement[row]
	if tab.Bounds[d+col] != row {
		return tab.EmptyValue
	}
	return tab.Entries[d+col]
}

func (tab *RowDisplacementTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

type rowInfo struct {
	rowNum      int
	nonEmptyCol []int
}

func (tab *RowDisplacementTable) Compress(orig *OriginalTable) error {
	rows := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rows[row].rowNum = row
		for col := 0; col < orig.colCount; col++ {
			if orig.entries[row*orig.colCount+col] != tab.EmptyValue {
				rows[row].nonEmptyCol = append(rows[row].nonEmptyCol, col)
			}
		}
	}
	// Placing the densest rows first leaves the gaps for the sparse ones.
	sort.SliceStable(rows, func(i, j int) bool {
		return len(rows[i].nonEmptyCol) > len(rows[j].nonEmptyCol)
	})

	size := len(orig.entries)
	entries := make([]int, size)
	bounds := make([]int, size)
	for i := 0; i < size; i++ {
		entries[i] = tab.EmptyValue
		bounds[i] = ForbiddenValue
	}
	rowDisplacement := make([]int, orig.rowCount)
	bottom := orig.colCount

	next := 0
	for _, r := range rows {
		if len(r.nonEmptyCol) == 0 {
			continue
		}

		d := next
		for {
			for d+orig.colCount > len(bounds) {
				entries = append(entries, tab.EmptyValue)
				bounds = append(bounds, ForbiddenValue)
			}
			if !overlaps(bounds, d, r.nonEmptyCol) {
				break
			}
			d++
		}

		rowDisplacement[r.rowNum] = d
		for _, col := range r.nonEmptyCol {
			entries[d+col] = orig.entries[r.rowNum*orig.colCount+col]
			bounds[d+col] = r.rowNum
		}
		if d+orig.colCount > bottom {
			bottom = d + orig.colCount
		}
		next = d + 1
	}

	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount
	tab.Entries = entries[:bottom]
	tab.Bounds = bounds[:bottom]
	tab.RowDisplacement = rowDisplacement

	return nil
}

func overlaps(bounds []int, d int, cols []int) bool {
	for _, col := range cols {
		if bounds[d+col] != ForbiddenValue {
			return true
		}
	}
	return false
}
