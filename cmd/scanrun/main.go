// Command scanrun is a small CLI demo that loads a YAML scenario
// describing one Scan invocation, runs it, and prints the result. It
// exists to exercise scan.Driver end to end outside of tests, the way
// gnd's own cmd/gnd loads a script and prints whatever the last
// instruction leaves behind.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/fact"
	"github.com/hyperifyio/scanrt/logging"
	"github.com/hyperifyio/scanrt/plan"
	"github.com/hyperifyio/scanrt/scan"
	"github.com/hyperifyio/scanrt/session"
	"github.com/hyperifyio/scanrt/tensor"
)

// scenario is the YAML configuration scanrun loads: a trip-count loop
// that sums the iteration index into an initial state, optionally
// echoing a scan input straight through a forward or reverse
// accumulator alongside it.
type scenario struct {
	TripCount    int       `yaml:"trip_count"`
	InitialState int64     `yaml:"initial_state"`
	ScanInput    []float64 `yaml:"scan_input"`
	Chunk        int       `yaml:"chunk"`
	Skip         int       `yaml:"skip"`
	LogLevel     string    `yaml:"log_level"`
}

func main() {
	path := flag.String("scenario", "", "path to a YAML scenario file")
	logLevelFlag := flag.String("log-level", "", "override the scenario's log level: debug, info, warn")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: scanrun --scenario <file.yaml>")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		logging.Printf(logging.Warn, "reading scenario: %v", err)
		os.Exit(1)
	}

	var sc scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		logging.Printf(logging.Warn, "parsing scenario: %v", err)
		os.Exit(1)
	}

	level := sc.LogLevel
	if *logLevelFlag != "" {
		level = *logLevelFlag
	}
	logging.SetLevel(parseLogLevel(level))

	if sc.Chunk == 0 {
		sc.Chunk = 1
	}

	op, inputs, err := buildOp(sc)
	if err != nil {
		logging.Printf(logging.Warn, "building scan op: %v", err)
		os.Exit(1)
	}

	d := op.State()
	outputs, err := d.Eval(context.Background(), session.New(nil), inputs)
	if err != nil {
		logging.Printf(logging.Warn, "running scan: %v", err)
		os.Exit(1)
	}

	for i, t := range outputs {
		fmt.Printf("output[%d] = %s\n", i, describeTensor(t))
	}
}

// buildOp assembles a scan.Op and its outer inputs from a scenario.
// With no ScanInput it builds a pure trip-count loop accumulating the
// iteration index into InitialState (scenario S1 style); with a
// ScanInput it additionally echoes each chunk through a matching
// forward or reverse scan output (S2/S3 style), sharing the same
// trip-count-derived hidden-state accumulation.
func buildOp(sc scenario) (*scan.Op, []*tensor.Tensor, error) {
	sumBody := func() plan.Body {
		return plan.NewFuncBody(
			bodyFacts(sc),
			func(_ context.Context, in []*tensor.Tensor) ([]*tensor.Tensor, error) {
				idx, err := in[0].ScalarInt64()
				if err != nil {
					return nil, err
				}
				s, err := in[1].ScalarInt64()
				if err != nil {
					return nil, err
				}
				out := []*tensor.Tensor{tensor.Scalar0D(s + idx)}
				if len(in) > 2 {
					out = append(out, in[2])
				}
				return out, nil
			},
		)
	}

	inputMapping := []scan.InputMapping{
		scan.IterIndex{},
		scan.State{Initializer: scan.FromInput{Slot: 0}},
	}
	outputMapping := []scan.OutputMapping{
		{State: true, LastValueSlot: intp(0)},
	}
	inputs := []*tensor.Tensor{tensor.Scalar0D(sc.InitialState)}

	tripSlot := len(inputs)
	inputs = append(inputs, tensor.Scalar0D(int64(sc.TripCount)))
	exitCond := scan.ExitCondition{TripCountFromInput: &tripSlot}

	if len(sc.ScanInput) > 0 {
		scanSlot := len(inputs)
		inputs = append(inputs, floatTensor(sc.ScanInput))
		inputMapping = append(inputMapping, scan.Scan{Info: scan.ScanInfo{Slot: scanSlot, Axis: 0, Chunk: sc.Chunk}})
		outputMapping = append(outputMapping, scan.OutputMapping{Scan: &scan.ScanInfo{Slot: 1, Axis: 0, Chunk: sc.Chunk}})
	}

	op := &scan.Op{
		Skip:          sc.Skip,
		NewBody:       sumBody,
		InputMapping:  inputMapping,
		OutputMapping: outputMapping,
		ExitCondition: exitCond,
	}
	return op, inputs, nil
}

func bodyFacts(sc scenario) []fact.Fact {
	facts := []fact.Fact{fact.New(tensor.Int64)}
	if len(sc.ScanInput) > 0 {
		k := sc.Chunk
		if k < 0 {
			k = -k
		}
		facts = append(facts, fact.New(tensor.Float32, dim.Lit(int64(k))))
	}
	return facts
}

func floatTensor(vals []float64) *tensor.Tensor {
	t, err := tensor.New(tensor.Float32, len(vals))
	if err != nil {
		panic(err)
	}
	for i, v := range vals {
		if err := t.SetFloat32(float32(v), i); err != nil {
			panic(err)
		}
	}
	return t
}

func describeTensor(t *tensor.Tensor) string {
	switch t.DType() {
	case tensor.Int64:
		if v, err := t.ScalarInt64(); err == nil {
			return fmt.Sprintf("%d", v)
		}
	case tensor.Bool:
		if v, err := t.ScalarBool(); err == nil {
			return fmt.Sprintf("%t", v)
		}
	}
	vals := make([]float32, t.Len())
	for i := range vals {
		v, err := t.GetFloat32(i)
		if err != nil {
			return fmt.Sprintf("<%s tensor, shape %v>", t.DType(), t.Shape())
		}
		vals[i] = v
	}
	return fmt.Sprintf("%v", vals)
}

func intp(i int) *int { return &i }

func parseLogLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.Debug
	case "info":
		return logging.Info
	default:
		return logging.Warn
	}
}
