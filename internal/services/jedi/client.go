package jedi

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Executable names.
const (
	ColorBinary     = "jedicolor"
	CatalogBinary   = "jedicatalog"
	TransformBinary = "jeditransform"
	DistortBinary   = "jedidistort"
	PasteBinary     = "jedipaste"
	ConvolveBinary  = "jediconvolve"
	RescaleBinary   = "jedirescale"
	AverageBinary   = "jediaverage"
	NoiseBinary     = "jedinoise"
)

// Binaries lists every executable in first-use order.
var Binaries = []string{
	ColorBinary,
	CatalogBinary,
	TransformBinary,
	DistortBinary,
	PasteBinary,
	ConvolveBinary,
	RescaleBinary,
	AverageBinary,
	NoiseBinary,
}

// Locator resolves an executable name to the path used to launch it.
type Locator interface {
	ExecutablePath(name string) string
}

// DirLocator resolves executables inside a single directory.
type DirLocator string

// ExecutablePath joins the directory and name.
func (d DirLocator) ExecutablePath(name string) string {
	return filepath.Join(string(d), name)
}

// Invocation is one stage command line. Label is the executable name.
type Invocation struct {
	Label string
	Argv  []string
}

// Client builds Invocations for the stage executables.
type Client struct {
	locator Locator
}

// New constructs a Client. A nil locator resolves names in ./executables.
func New(locator Locator) *Client {
	if locator == nil {
		locator = DirLocator("executables")
	}
	return &Client{locator: locator}
}

// Path returns the launch path for name.
func (c *Client) Path(name string) string {
	return c.locator.ExecutablePath(name)
}

func (c *Client) build(name string, args ...string) Invocation {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, c.Path(name))
	argv = append(argv, args...)
	return Invocation{Label: name, Argv: argv}
}

// Color merges bulge and disk images with the given blend weights.
func (c *Client) Color(infile string, bulge, disk float64) Invocation {
	return c.build(ColorBinary, infile, FormatFloat(bulge), FormatFloat(disk))
}

// Catalog generates the object catalog and list files from the settings file.
func (c *Client) Catalog(settingsPath string) Invocation {
	return c.build(CatalogBinary, settingsPath)
}

// Transform writes zipped stamps and the distortion list.
func (c *Client) Transform(catalogPath, dislistPath string) Invocation {
	return c.build(TransformBinary, catalogPath, dislistPath)
}

// Distort lenses every stamp listed in dislistPath.
func (c *Client) Distort(nx, ny, dislistPath, lensesPath, pixScale, lensZ string) Invocation {
	return c.build(DistortBinary, nx, ny, dislistPath, lensesPath, pixScale, lensZ)
}

// Paste combines the images listed in listPath into outputPath.
func (c *Client) Paste(nx, ny, listPath, outputPath string) Invocation {
	return c.build(PasteBinary, nx, ny, listPath, outputPath)
}

// Convolve writes the six convolved bands of imagePath into outputDir.
func (c *Client) Convolve(imagePath, psfPath, outputDir string) Invocation {
	return c.build(ConvolveBinary, imagePath, psfPath, outputDir)
}

// Rescale converts imagePath from one pixel scale to another and trims it.
func (c *Client) Rescale(imagePath, fromScale, toScale, trimX, trimY, outputPath string) Invocation {
	return c.build(RescaleBinary, imagePath, fromScale, toScale, trimX, trimY, outputPath)
}

// Average stacks the images listed in listPath.
func (c *Client) Average(listPath, outputPath string) Invocation {
	return c.build(AverageBinary, listPath, outputPath)
}

// Noise simulates the exposure time and adds Poisson noise.
func (c *Client) Noise(imagePath, expTime, noiseMean, outputPath string) Invocation {
	return c.build(NoiseBinary, imagePath, expTime, noiseMean, outputPath)
}

// FormatFloat renders v the way the weight table values have always been
// passed on the command line: shortest round-trip decimal with at least one
// fractional digit ("1.0", "0.05"). Values below 1e-4 stay in positional
// form, so 0.00001 prints "0.00001" where Python's repr gives "1e-05".
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}
