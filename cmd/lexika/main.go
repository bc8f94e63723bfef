// Command lexika builds a vocabulary from a token stream and applies it.
//
// Build mode reads observations from a text file, one per line:
//
//	token[<TAB>label[<TAB>weight]]
//
// and writes the vocabulary artifact (optionally recording the run in a
// SQLite database). Apply mode reads tokens, one per line, and prints each
// token's assigned index.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/lexika/pkg/lexika"
	"github.com/cognicore/lexika/pkg/lexika/config"
	"github.com/cognicore/lexika/pkg/lexika/store"
	"github.com/cognicore/lexika/pkg/lexika/store/sqlite"
	"github.com/cognicore/lexika/pkg/lexika/table"
)

func main() {
	var (
		mode       = flag.String("mode", "build", "build or apply")
		input      = flag.String("input", "", "input file (defaults to stdin)")
		configPath = flag.String("config", "", "optional YAML config file")
		outDir     = flag.String("out", "", "artifact output directory (default: config output_dir, else .)")
		vocabName  = flag.String("vocab", "", "artifact filename (overrides config)")
		topK       = flag.String("top-k", "", "keep only the K highest ranked tokens")
		threshold  = flag.String("frequency-threshold", "", "drop tokens below this frequency")
		covTopK    = flag.String("coverage-top-k", "", "guaranteed tokens per key group")
		covThresh  = flag.String("coverage-frequency-threshold", "", "frequency floor for coverage picks")
		keyDelim   = flag.String("key-delim", "", "derive the coverage key as the token prefix before this delimiter")
		storeFreq  = flag.Bool("store-frequency", false, "write frequencies into the artifact")
		shuffle    = flag.Bool("fingerprint-shuffle", false, "order the artifact by token fingerprint")
		adjustedMI = flag.Bool("adjusted-mi", false, "use adjusted mutual information for labeled input")
		minDiff    = flag.Float64("min-diff-from-avg", 0, "snap near-chance scores to zero")
		oovBuckets = flag.Int("oov-buckets", 0, "number of out-of-vocabulary buckets")
		defaultVal = flag.Int64("default", -1, "index for unknown tokens without OOV buckets")
		dbPath     = flag.String("db", "", "optional SQLite database recording runs")
		vocabFile  = flag.String("vocab-file", "", "apply mode: artifact to load")
		hasFreq    = flag.Bool("has-frequency", false, "apply mode: artifact stores frequencies")
	)
	flag.Parse()

	switch *mode {
	case "build":
		cfg, err := buildConfig(*configPath, *topK, *threshold, *covTopK, *covThresh, *keyDelim)
		if err != nil {
			log.Fatal(err)
		}
		if *outDir != "" {
			cfg.OutputDir = *outDir
		} else if cfg.OutputDir == "" {
			cfg.OutputDir = "."
		}
		if *vocabName != "" {
			cfg.VocabFilename = *vocabName
		}
		cfg.StoreFrequency = cfg.StoreFrequency || *storeFreq
		cfg.FingerprintShuffle = cfg.FingerprintShuffle || *shuffle
		cfg.UseAdjustedMutualInfo = cfg.UseAdjustedMutualInfo || *adjustedMI
		if *minDiff > 0 {
			cfg.MinDiffFromAvg = *minDiff
		}
		if *oovBuckets > 0 {
			cfg.NumOOVBuckets = *oovBuckets
		}
		cfg.DefaultValue = *defaultVal

		if err := runBuild(cfg, *input, *dbPath); err != nil {
			log.Fatal(err)
		}
	case "apply":
		if *vocabFile == "" {
			log.Fatal("apply mode requires -vocab-file")
		}
		if err := runApply(*vocabFile, *input, *hasFreq, *oovBuckets, *defaultVal); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown mode %q (want build or apply)", *mode)
	}
}

func buildConfig(path, topK, threshold, covTopK, covThresh, keyDelim string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	var err error
	if topK != "" {
		if cfg.TopK, err = config.IntOption(topK); err != nil {
			return config.Config{}, err
		}
	}
	if threshold != "" {
		if cfg.FrequencyThreshold, err = config.FloatOption(threshold); err != nil {
			return config.Config{}, err
		}
	}
	if covTopK != "" {
		if cfg.CoverageTopK, err = config.IntOption(covTopK); err != nil {
			return config.Config{}, err
		}
	}
	if covThresh != "" {
		if cfg.CoverageFrequencyThreshold, err = config.FloatOption(covThresh); err != nil {
			return config.Config{}, err
		}
	}
	if keyDelim != "" {
		delim := keyDelim
		cfg.KeyFn = func(token string) string {
			key, _, _ := strings.Cut(token, delim)
			return key
		}
	}
	return cfg, nil
}

func runBuild(cfg config.Config, input, dbPath string) error {
	ctx := context.Background()

	var st store.Store
	if dbPath != "" {
		var err error
		st, err = sqlite.OpenSQLite(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
	}

	builder, err := lexika.NewBuilder(lexika.Options{Config: cfg, Store: st})
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(input)
	if err != nil {
		return err
	}
	defer closeIn()

	lines := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines++
		token, label, weight, hasLabel, err := parseObservation(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
		if hasLabel {
			builder.ObserveLabeled(token, weight, label)
		} else {
			builder.ObserveWeighted(token, weight)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	vocab, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	path, err := vocab.Write(ctx)
	if err != nil {
		return err
	}
	log.Printf("wrote %d entries to %s", vocab.Size(), path)
	return nil
}

// parseObservation splits a line into token, optional label and optional
// weight, tab-separated.
func parseObservation(line string) (token string, label int64, weight float64, hasLabel bool, err error) {
	fields := strings.Split(line, "\t")
	token = fields[0]
	weight = 1
	if len(fields) > 1 && fields[1] != "" {
		label, err = strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return "", 0, 0, false, fmt.Errorf("bad label %q: %v", fields[1], err)
		}
		hasLabel = true
	}
	if len(fields) > 2 && fields[2] != "" {
		weight, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return "", 0, 0, false, fmt.Errorf("bad weight %q: %v", fields[2], err)
		}
	}
	return token, label, weight, hasLabel, nil
}

func runApply(vocabFile, input string, hasFreq bool, oovBuckets int, defaultVal int64) error {
	tbl, err := table.Load(vocabFile, hasFreq, table.Options{
		NumOOVBuckets: oovBuckets,
		DefaultValue:  defaultVal,
	})
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(input)
	if err != nil {
		return err
	}
	defer closeIn()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		token := scanner.Text()
		fmt.Fprintf(out, "%d\t%s\n", tbl.Lookup(token), token)
	}
	return scanner.Err()
}

func openInput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
