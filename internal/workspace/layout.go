package workspace

import (
	"context"
	"log/slog"
	"strings"

	"jedisim/internal/logging"
	"jedisim/internal/services"
	"jedisim/internal/settings"
)

// Numbered describes a set of per-batch folders under Base.
type Numbered struct {
	Base  string
	Count int
	Names []string
}

// Layout is the ordered directory set prepared at the start of a run.
type Layout struct {
	Reset    []string
	Numbered []Numbered
}

// BuildLayout derives the directory set for the requested cases from the
// derived settings namespace.
func BuildLayout(ns settings.Namespace, batchSize int, cases ...settings.Case) (Layout, error) {
	if len(cases) == 0 {
		cases = settings.Cases
	}
	numGalaxies, err := ns.Require(settings.KeyNumGalaxies)
	if err != nil {
		return Layout{}, err
	}
	count, err := BatchCount(numGalaxies, batchSize)
	if err != nil {
		return Layout{}, services.Wrap(services.ErrValidation, "workspace", "layout", "", err)
	}

	var layout Layout
	for _, c := range cases {
		output, err := ns.Require(c.OutputFolderKey())
		if err != nil {
			return Layout{}, err
		}
		rescaled, err := ns.Require(c.RescaledFolderKey())
		if err != nil {
			return Layout{}, err
		}
		root := output
		if c == settings.Baseline {
			root = strings.TrimSuffix(output, "/")
		}
		layout.Reset = append(layout.Reset, root, rescaled)
		if c == settings.Baseline {
			color, err := ns.Require(settings.KeyColorOutfolder)
			if err != nil {
				return Layout{}, err
			}
			layout.Reset = append(layout.Reset, color)
		}
		layout.Reset = append(layout.Reset, settings.JoinDir(output, "convolved/"))
		layout.Numbered = append(layout.Numbered, Numbered{
			Base:  output,
			Count: count,
			Names: DefaultNumberedNames,
		})
	}
	return layout, nil
}

// Provision applies the layout: every reset directory is recreated empty in
// order, then the numbered folders are ensured.
func Provision(ctx context.Context, logger *slog.Logger, layout Layout) error {
	logger = logging.NewComponentLogger(logger, "workspace")
	for _, dir := range layout.Reset {
		if err := ctx.Err(); err != nil {
			return err
		}
		replaced, err := Reset(dir)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "workspace", "reset", dir, err)
		}
		action := "created"
		if replaced {
			action = "replaced"
		}
		logger.Info("output folder ready",
			logging.String(logging.FieldEventType, "folder_reset"),
			logging.String("path", dir),
			logging.String("action", action),
		)
	}
	for _, set := range layout.Numbered {
		if err := EnsureNumbered(set.Base, set.Count, set.Names...); err != nil {
			return services.Wrap(services.ErrConfiguration, "workspace", "numbered folders", set.Base, err)
		}
		logger.Info("batch folders ready",
			logging.String(logging.FieldEventType, "folders_numbered"),
			logging.String("base", set.Base),
			logging.Int("count", set.Count),
		)
	}
	return nil
}
