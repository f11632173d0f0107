// Package weights loads the bulge/disk blend table passed to jedicolor.
package weights

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"jedisim/internal/services"
)

// Table holds one row of blend weights per loop iteration. Column 0 is the
// bulge weight and column 1 the disk weight; extra columns are kept but unused.
type Table struct {
	m *mat.Dense
}

// LoadFile reads the weight table at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "weights", "open", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a whitespace-delimited numeric table. Blank lines and lines
// starting with '#' are skipped.
func Load(r io.Reader) (*Table, error) {
	var (
		data []float64
		cols int
		rows int
	)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, services.Wrap(services.ErrValidation, "weights", "parse",
				fmt.Sprintf("line %d: expected at least 2 columns, got %d", lineNo, len(fields)), nil)
		}
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, services.Wrap(services.ErrValidation, "weights", "parse",
				fmt.Sprintf("line %d: expected %d columns, got %d", lineNo, cols, len(fields)), nil)
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "weights", "parse",
					fmt.Sprintf("line %d: invalid number %q", lineNo, field), err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "weights", "read", "", err)
	}
	if rows == 0 {
		return nil, services.Wrap(services.ErrValidation, "weights", "parse", "table is empty", nil)
	}
	return &Table{m: mat.NewDense(rows, cols, data)}, nil
}

// Rows reports the number of weight rows.
func (t *Table) Rows() int {
	r, _ := t.m.Dims()
	return r
}

// Bulge returns the bulge weight for iteration i.
func (t *Table) Bulge(i int) float64 {
	return t.m.At(i, 0)
}

// Disk returns the disk weight for iteration i.
func (t *Table) Disk(i int) float64 {
	return t.m.At(i, 1)
}

// Require returns an error unless the table covers n iterations.
func (t *Table) Require(n int) error {
	if t.Rows() < n {
		return services.Wrap(services.ErrValidation, "weights", "require",
			fmt.Sprintf("table has %d rows, pipeline needs %d", t.Rows(), n), nil)
	}
	return nil
}
