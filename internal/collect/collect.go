package collect

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jedisim/internal/fileutil"
	"jedisim/internal/logging"
	"jedisim/internal/services"
	"jedisim/internal/settings"
)

// stampLayout names batch folders by the minute the batch started.
const stampLayout = "2006_Jan_02_15_04"

// Product is one image kept from every realization.
type Product struct {
	// Key is the derived settings key holding the source path.
	Key string
	// Format is the destination filename; %d is the realization index.
	Format string
}

// Products lists the images kept per realization, baseline first.
func Products(rotated bool) []Product {
	cases := []settings.Case{settings.Baseline}
	if rotated {
		cases = append(cases, settings.Rotated)
	}
	var lsst, mono []Product
	for _, c := range cases {
		suffix := ""
		if c == settings.Rotated {
			suffix = "_90"
		}
		_, monoOut := c.MonochromaticKeys()
		lsst = append(lsst, Product{Key: c.Key("LSST_averaged_noised_image"), Format: "lsst" + suffix + "_%d.fits"})
		mono = append(mono, Product{Key: monoOut, Format: "monochromatic" + suffix + "_%d.fits"})
	}
	return append(lsst, mono...)
}

// BatchDir returns the folder under root that collects a batch started at.
// The fixed redshift of the settings is part of the name when present.
func BatchDir(root string, raw settings.Namespace, at time.Time) string {
	name := "jout_" + at.Format(stampLayout)
	if z, ok := raw.Get(settings.KeyFixedRedshift); ok && strings.TrimSpace(z) != "" {
		name = "jout_z" + strings.TrimSpace(z) + "_" + at.Format(stampLayout)
	}
	return filepath.Join(root, name)
}

// Collector copies realization products into one batch folder.
type Collector struct {
	dir      string
	workDir  string
	products []Product
	logger   *slog.Logger
}

// New returns a Collector writing into dir. Relative source paths resolve
// from workDir.
func New(dir, workDir string, rotated bool, logger *slog.Logger) *Collector {
	return &Collector{
		dir:      dir,
		workDir:  workDir,
		products: Products(rotated),
		logger:   logging.NewComponentLogger(logger, "collect"),
	}
}

// Dir reports the batch folder.
func (c *Collector) Dir() string { return c.dir }

// Collect copies the products of realization i named by ns and returns the
// written paths in product order.
func (c *Collector) Collect(ns settings.Namespace, i int) ([]string, error) {
	if i < 0 {
		return nil, services.Wrap(services.ErrValidation, "collect", "realization", fmt.Sprintf("index %d", i), nil)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "collect", "create batch folder", c.dir, err)
	}
	written := make([]string, 0, len(c.products))
	for _, p := range c.products {
		src, err := ns.Require(p.Key)
		if err != nil {
			return written, err
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(c.workDir, src)
		}
		dst := filepath.Join(c.dir, fmt.Sprintf(p.Format, i))
		if err := fileutil.CopyAtomic(src, dst); err != nil {
			return written, services.Wrap(services.ErrNotFound, "collect", "copy "+p.Key, src, err)
		}
		written = append(written, dst)
	}
	c.logger.Info("realization collected",
		logging.String(logging.FieldEventType, "realization_collected"),
		logging.Int("realization", i),
		logging.String("dir", c.dir),
		logging.Strings("files", written),
	)
	return written, nil
}
