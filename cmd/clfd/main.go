// Command clfd applies statistical RFI cleaning to folded pulsar data
// cubes stored as .npy files: profile masking based on Tukey's rule over
// per-profile features, and optional zero-DM spike removal with synthetic
// replacement values.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/user/clfd_go/internal/features"
	"github.com/user/clfd_go/internal/pipeline"
)

const version = "1.0.0"

func main() {
	var (
		configPath  = flag.String("config", "", "optional YAML config file with cleanup defaults")
		zapfile     = flag.String("zapfile", "", "text file listing channel indices to forcibly mask, one per line")
		featureList = flag.String("features", "", "comma-separated profile features for profile masking (available: "+strings.Join(features.Available(), ", ")+")")
		qmask       = flag.Float64("qmask", 0, "Tukey multiplier for profile masking")
		despike     = flag.Bool("despike", false, "also run zero-DM spike removal and replace flagged samples")
		qspike      = flag.Float64("qspike", 0, "Tukey multiplier for spike finding")
		ext         = flag.String("ext", "", "extension appended to cleaned output files")
		outdir      = flag.String("outdir", "", "output directory (default: next to each input file)")
		processes   = flag.Int("processes", 0, "number of files processed in parallel")
		noReport    = flag.Bool("no-report", false, "do not save JSON cleanup reports")
		pdf         = flag.Bool("pdf", false, "additionally render plots and save a PDF report")
		showVersion = flag.Bool("version", false, "print version and exit")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [options] file.npy [file.npy ...]\n\nOptions:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			logrus.WithError(err).Fatal("cannot load config")
		}
		cfg = loaded
	}

	// Flags set on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "zapfile":
			cfg.Zapfile = *zapfile
		case "features":
			cfg.Features = splitFeatureList(*featureList)
		case "qmask":
			cfg.QMask = *qmask
		case "despike":
			cfg.Despike = *despike
		case "qspike":
			cfg.QSpike = *qspike
		case "ext":
			cfg.Ext = *ext
		case "outdir":
			cfg.OutDir = *outdir
		case "processes":
			cfg.Processes = *processes
		case "no-report":
			cfg.Report = !*noReport
		case "pdf":
			cfg.PDF = *pdf
		}
	})

	results, err := pipeline.Run(flag.Args(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("cleanup run aborted")
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logrus.Errorf("%d / %d files failed", failed, len(results))
		os.Exit(1)
	}
	logrus.Infof("cleaned %d files", len(results))
}

func splitFeatureList(text string) []string {
	var names []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		if field != "" {
			names = append(names, field)
		}
	}
	return names
}
