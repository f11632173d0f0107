package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"jedisim/internal/fileutil"
	"jedisim/internal/services"
)

// AngleField is the index of the rotation angle in a catalog record.
const AngleField = 3

// minFields is the smallest record that carries an angle.
const minFields = AngleField + 1

var (
	quarterTurn = apd.New(90, 0)
	fullTurn    = apd.New(360, 0)
	// angleContext carries far more digits than any catalog column, so sums
	// are exact.
	angleContext = apd.BaseContext.WithPrecision(64)
)

// RotateAngle adds 90 degrees to the decimal angle deg, wrapping once at
// 360. Arithmetic is exact in decimal: the digits of deg are kept, so four
// rotations return the input text for any angle in [0, 360). Integral
// results carry one fractional digit ("80.0").
func RotateAngle(deg string) (string, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(deg))
	if err != nil {
		return "", err
	}
	if d.Form != apd.Finite {
		return "", fmt.Errorf("angle %q is not a finite number", deg)
	}
	var r apd.Decimal
	cond, err := angleContext.Add(&r, d, quarterTurn)
	if err != nil {
		return "", err
	}
	if r.Cmp(fullTurn) >= 0 {
		c, err := angleContext.Sub(&r, &r, fullTurn)
		if err != nil {
			return "", err
		}
		cond |= c
	}
	if r.Exponent > -1 {
		c, err := angleContext.Quantize(&r, &r, -1)
		if err != nil {
			return "", err
		}
		cond |= c
	}
	if cond.Inexact() {
		return "", fmt.Errorf("angle %q has too many digits", deg)
	}
	return r.Text('f'), nil
}

// RotateCatalog writes a copy of the catalog at in to out with every angle
// rotated by 90 degrees and from replaced by to in the last two fields.
func RotateCatalog(in, out, from, to string) error {
	return transform(in, out, from, "rotate catalog", func(lineNo int, body string) (string, error) {
		return rotateRecord(lineNo, body, from, to)
	})
}

// RewriteList writes a copy of the list at in to out with every occurrence
// of from replaced by to.
func RewriteList(in, out, from, to string) error {
	return transform(in, out, from, "rewrite list", func(_ int, body string) (string, error) {
		return strings.ReplaceAll(body, from, to), nil
	})
}

func rotateRecord(lineNo int, body, from, to string) (string, error) {
	fields := strings.Split(body, "\t")
	if len(fields) < minFields {
		return "", services.Wrap(services.ErrCatalogFormat, "catalog", "rotate",
			fmt.Sprintf("line %d: %d fields, need at least %d", lineNo, len(fields), minFields), nil)
	}
	angle, err := RotateAngle(fields[AngleField])
	if err != nil {
		return "", services.Wrap(services.ErrCatalogFormat, "catalog", "rotate",
			fmt.Sprintf("line %d: angle %q", lineNo, fields[AngleField]), err)
	}
	fields[AngleField] = angle
	n := len(fields)
	for _, idx := range []int{n - 2, n - 1} {
		if idx == AngleField {
			continue
		}
		fields[idx] = strings.ReplaceAll(fields[idx], from, to)
	}
	return strings.Join(fields, "\t"), nil
}

type lineFunc func(lineNo int, body string) (string, error)

func transform(in, out, from, op string, fn lineFunc) error {
	if from == "" {
		return services.Wrap(services.ErrValidation, "catalog", op, "empty source folder", nil)
	}
	src, err := os.Open(in)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "catalog", op, in, err)
	}
	defer src.Close()

	dst, err := fileutil.CreateAtomic(out)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "catalog", op, out, err)
	}
	defer dst.Abort()

	reader := bufio.NewReader(src)
	lineNo := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return services.Wrap(services.ErrConfiguration, "catalog", op, in, readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		lineNo++
		body, ending := splitEnding(line)
		rewritten, err := fn(lineNo, body)
		if err != nil {
			return err
		}
		if _, err := dst.WriteString(rewritten + ending); err != nil {
			return services.Wrap(services.ErrConfiguration, "catalog", op, out, err)
		}
		if readErr != nil {
			break
		}
	}

	if err := dst.Commit(); err != nil {
		return services.Wrap(services.ErrConfiguration, "catalog", op, out, err)
	}
	return nil
}

// splitEnding separates a line from its terminator ("\n", "\r\n", or none).
func splitEnding(line string) (body, ending string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
