package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/twisty/pkg/config"
	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/engine"
	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/kernel/sdfx"
	"github.com/chazu/twisty/pkg/logs"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/postprocess"
	"github.com/chazu/twisty/pkg/puzzle"
	"github.com/chazu/twisty/pkg/validate"
)

// ErrValidation is returned when a generated puzzle fails validation. The
// puzzle file is still written.
var ErrValidation = errors.New("puzzle failed validation")

// App runs the generation pipeline: script evaluation, decomposition,
// post-processing, validation and persistence.
type App struct {
	cfg    config.Config
	engine *engine.Engine
	kernel kernel.Kernel
	log    *slog.Logger
}

// Report summarizes one generated puzzle.
type Report struct {
	Name          string
	Path          string
	STLPath       string
	Fragments     int
	Pieces        int
	Passes        int
	TexturePlanes int
	Warnings      []string
}

// NewApp creates an App with an engine and the sdfx kernel.
func NewApp(cfg config.Config, log *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		log:    logs.OrNop(log),
	}
}

// Evaluate turns script source into a policy. Eval errors are joined into
// the returned error.
func (a *App) Evaluate(source string) (*decompose.Scheduled, []string, error) {
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		return nil, nil, err
	}
	warnings := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		warnings[i] = w.String()
	}
	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return nil, warnings, errors.Join(errs...)
	}
	return res.Policy, warnings, nil
}

// GenerateScript evaluates the script at path and generates its puzzle.
// An unnamed script takes its file name.
func (a *App) GenerateScript(path string) (Report, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	policy, warnings, err := a.Evaluate(string(source))
	for _, w := range warnings {
		a.log.Warn("script", "path", path, "warning", w)
	}
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	if policy.Title == "" {
		policy.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	rep, err := a.Generate(policy)
	rep.Warnings = append(warnings, rep.Warnings...)
	return rep, err
}

// Generate decomposes p and writes its puzzle file.
func (a *App) Generate(p decompose.Policy) (Report, error) {
	log := a.log.With("puzzle", p.Name())

	eng := decompose.New(a.kernel)
	eng.Workers = a.cfg.Workers
	eng.MaxPasses = a.cfg.MaxPasses
	eng.WeldEps = a.cfg.WeldEpsilon
	eng.Logger = log

	res, err := eng.Run(p)
	if err != nil {
		return Report{Name: p.Name()}, err
	}

	rep := Report{
		Name:      res.Name,
		Fragments: len(res.Fragments),
		Pieces:    len(res.Workspace.GroupPieces()),
		Passes:    res.Passes,
	}
	rep.TexturePlanes, err = postprocess.Run(res.Fragments, postprocess.Options{Workers: a.cfg.Workers, Logger: log})
	if err != nil {
		return rep, err
	}

	var invalid error
	if a.cfg.Validate {
		v := validate.ValidateAll(res)
		for _, w := range v.Warnings {
			log.Warn("validation", "finding", w.Error())
			rep.Warnings = append(rep.Warnings, w.Error())
		}
		for _, e := range v.Errors {
			log.Error("validation", "finding", e.Error())
		}
		if !v.OK() {
			invalid = fmt.Errorf("%s: %w: %d errors", res.Name, ErrValidation, len(v.Errors))
		}
	}

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return rep, err
	}
	rep.Path = filepath.Join(a.cfg.OutputDir, puzzle.FileName(res.Name, a.cfg.Compress))
	if err := puzzle.Save(rep.Path, res.Describe()); err != nil {
		return rep, err
	}
	if a.cfg.STL {
		rep.STLPath = filepath.Join(a.cfg.OutputDir, res.Name+".stl")
		meshes := lo.Map(res.Fragments, func(f *puzzle.Fragment, _ int) *mesh.Mesh { return f.Mesh })
		if err := sdfx.SaveSTL(rep.STLPath, meshes...); err != nil {
			return rep, fmt.Errorf("%s: stl: %w", res.Name, err)
		}
	}

	log.Info("wrote puzzle", "path", rep.Path, "fragments", rep.Fragments, "pieces", rep.Pieces, "texture_planes", rep.TexturePlanes)
	return rep, invalid
}
