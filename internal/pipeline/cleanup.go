package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/user/clfd_go/internal/cube"
	"github.com/user/clfd_go/internal/masking"
	"github.com/user/clfd_go/internal/npy"
	"github.com/user/clfd_go/internal/report"
)

// FileResult records the outcome of one file's cleanup. Err is non-nil
// when any stage failed; sibling files are unaffected either way.
type FileResult struct {
	Path           string
	OutPath        string
	ReportPath     string
	MaskedProfiles int
	BadBins        int
	Err            error
}

// CleanupFile runs the full stage sequence on one input file: load,
// profile mask, zero masked profiles, optional despike, save cleaned data
// and reports. Every failure is wrapped with the stage that produced it.
func CleanupFile(path string, zapChannels []int, cfg Config) FileResult {
	result := FileResult{Path: path}
	log := logrus.WithField("file", filepath.Base(path))

	raw, err := npy.Read(path)
	if err != nil {
		result.Err = fmt.Errorf("ingestion: %w", err)
		return result
	}
	c, err := cube.New(raw)
	if err != nil {
		result.Err = fmt.Errorf("ingestion: %w", err)
		return result
	}
	log.WithFields(logrus.Fields{
		"subints":  c.NumSubints(),
		"channels": c.NumChans(),
		"bins":     c.NumBins(),
	}).Info("loaded cube")

	pm, err := masking.ProfileMask(c, cfg.Features, cfg.QMask, zapChannels)
	if err != nil {
		result.Err = fmt.Errorf("profile masking: %w", err)
		return result
	}
	result.MaskedProfiles = pm.Mask.CountTrue()
	log.WithFields(logrus.Fields{
		"masked":   result.MaskedProfiles,
		"profiles": pm.Mask.Size(),
	}).Info("profile masking done")

	// The cleaned cube starts from the original values; masked profiles
	// are zeroed out entirely.
	cleaned := c.Original()
	nbin := c.NumBins()
	for i := 0; i < c.NumSubints(); i++ {
		for j := 0; j < c.NumChans(); j++ {
			if !pm.Mask.At(i, j) {
				continue
			}
			start := (i*c.NumChans() + j) * nbin
			for k := start; k < start+nbin; k++ {
				cleaned.Data[k] = 0
			}
		}
	}

	rep := &report.Report{Filename: path, ProfileMasking: pm}

	if cfg.Despike {
		sf, plan, err := masking.FindTimePhaseSpikes(c, cfg.QSpike, zapChannels)
		if err != nil {
			result.Err = fmt.Errorf("spike finding: %w", err)
			return result
		}
		cleaned, err = plan.Apply(cleaned)
		if err != nil {
			result.Err = fmt.Errorf("spike subtraction: %w", err)
			return result
		}
		rep.SpikeFinding = sf
		result.BadBins = sf.Mask.CountTrue()
		log.WithFields(logrus.Fields{
			"flagged": result.BadBins,
			"bins":    sf.Mask.Size(),
		}).Info("despiking done")
	}

	result.OutPath = outputPath(path, cfg) + "." + cfg.Ext
	if err := npy.Write(result.OutPath, cleaned, npy.DtypeFloat32); err != nil {
		result.Err = fmt.Errorf("saving cleaned data: %w", err)
		return result
	}
	log.WithField("out", result.OutPath).Info("saved cleaned cube")

	if cfg.Report {
		result.ReportPath = outputPath(path, cfg) + "_clfd_report.json"
		if err := rep.Save(result.ReportPath); err != nil {
			result.Err = fmt.Errorf("saving report: %w", err)
			return result
		}
		if cfg.PDF {
			plots, err := report.RenderPlots(rep)
			if err != nil {
				result.Err = fmt.Errorf("rendering plots: %w", err)
				return result
			}
			pdfPath := outputPath(path, cfg) + "_clfd_report.pdf"
			if err := report.BuildPDF(pdfPath, rep, plots); err != nil {
				result.Err = fmt.Errorf("saving PDF report: %w", err)
				return result
			}
		}
		log.WithField("report", result.ReportPath).Info("saved report")
	}
	return result
}

// outputPath maps an input file to its output location (minus extension
// suffixes): next to the input, or inside cfg.OutDir when set.
func outputPath(path string, cfg Config) string {
	if cfg.OutDir == "" {
		return path
	}
	return filepath.Join(cfg.OutDir, filepath.Base(path))
}
