package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/davidahmann/tempo/core/engine"
	"github.com/davidahmann/tempo/core/engineconfig"
	"github.com/davidahmann/tempo/core/interval"
	"github.com/davidahmann/tempo/core/policy"
	"github.com/davidahmann/tempo/core/schema/v1/action"
	"github.com/davidahmann/tempo/core/schema/validate"
)

type evaluateOutput struct {
	OK     bool                 `json:"ok"`
	Result *action.EngineResult `json:"result,omitempty"`
}

func runEvaluate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Evaluate one action descriptor against a snapshot of existing items: auto-execute (dry run), or emit an approval request with self-contained action_data.")
	}

	flagSet := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var inputPath string
	var snapshotPath string
	var policyPath string
	var configPath string

	flagSet.StringVar(&inputPath, "input", "", "path to the action descriptor JSON")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "path to a JSON array of existing items")
	flagSet.StringVar(&policyPath, "policy", "", "path to an approval policy YAML")
	flagSet.StringVar(&configPath, "config", engineconfig.DefaultPath, "path to the engine config YAML")

	if err := flagSet.Parse(arguments); err != nil {
		return writeInvalidInput(err.Error())
	}
	if inputPath == "" {
		return writeInvalidInput("-input is required")
	}

	configuration, err := engineconfig.Load(configPath, true)
	if err != nil {
		return writeInvalidInput(err.Error())
	}

	table := policy.Default()
	if policyPath == "" {
		policyPath = configuration.Policy.Path
	}
	if policyPath != "" {
		table, err = policy.LoadFile(policyPath)
		if err != nil {
			return writeInvalidInput(err.Error())
		}
	}

	if err := validate.ValidateFile("action_descriptor", inputPath); err != nil {
		return writeInvalidInput(err.Error())
	}
	descriptor, err := readDescriptor(inputPath)
	if err != nil {
		return writeInvalidInput(err.Error())
	}

	snapshots := &fileSnapshots{}
	if snapshotPath != "" {
		items, err := readItems(snapshotPath)
		if err != nil {
			return writeInvalidInput(err.Error())
		}
		snapshots.items = items
	}

	eng, err := engine.New(engine.Options{
		Policy:          table,
		Snapshots:       snapshots,
		Executor:        &dryRunExecutor{},
		Config:          configuration,
		ProducerVersion: version,
	})
	if err != nil {
		return writeInvalidInput(err.Error())
	}

	result, err := eng.Process(context.Background(), descriptor)
	if err != nil {
		return writeErrorOutput(err)
	}

	exitCode := exitOK
	if result.NeedsApproval {
		exitCode = exitApprovalRequired
	}
	return writeJSONOutput(evaluateOutput{OK: true, Result: &result}, exitCode)
}

func readDescriptor(path string) (action.ActionDescriptor, error) {
	// #nosec G304 -- descriptor path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return action.ActionDescriptor{}, err
	}
	var descriptor action.ActionDescriptor
	if err := json.Unmarshal(content, &descriptor); err != nil {
		return action.ActionDescriptor{}, err
	}
	return descriptor, nil
}

func readItems(path string) ([]action.ItemSummary, error) {
	// #nosec G304 -- snapshot path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []action.ItemSummary
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// fileSnapshots serves a fixed item list loaded from disk, filtered to the
// requested domain.
type fileSnapshots struct {
	items []action.ItemSummary
}

func (f *fileSnapshots) FetchExisting(_ context.Context, domain string, _ interval.Interval) ([]action.ItemSummary, error) {
	out := make([]action.ItemSummary, 0, len(f.items))
	for _, item := range f.items {
		if item.Domain != "" && item.Domain != domain {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// dryRunExecutor acknowledges the execution without touching any provider.
type dryRunExecutor struct{}

func (d *dryRunExecutor) Execute(_ context.Context, request action.ExecutionRequest) (action.ItemSummary, error) {
	return action.ItemSummary{
		ID:     "dry-run-" + request.RequestID,
		Domain: request.Domain,
		Title:  request.ResolvedPayload.Title,
		Start:  request.ResolvedPayload.Start,
		End:    request.ResolvedPayload.End,
	}, nil
}
