package main

import (
	"flag"
	"io"

	"github.com/davidahmann/tempo/core/policy"
)

type policyOutput struct {
	OK     bool          `json:"ok"`
	Policy *policy.Table `json:"policy,omitempty"`
	Digest string        `json:"digest,omitempty"`
}

func runPolicy(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Show the normalized approval policy table, or its canonical digest with -digest.")
	}

	flagSet := flag.NewFlagSet("policy", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var digestOnly bool
	var policyPath string

	flagSet.BoolVar(&digestOnly, "digest", false, "print only the policy digest")
	flagSet.StringVar(&policyPath, "policy", "", "path to an approval policy YAML")

	if err := flagSet.Parse(arguments); err != nil {
		return writeInvalidInput(err.Error())
	}

	table := policy.Default()
	if policyPath != "" {
		loaded, err := policy.LoadFile(policyPath)
		if err != nil {
			return writeInvalidInput(err.Error())
		}
		table = loaded
	}

	digest, err := policy.Digest(table)
	if err != nil {
		return writeErrorOutput(err)
	}

	output := policyOutput{OK: true, Digest: digest}
	if !digestOnly {
		output.Policy = &table
	}
	return writeJSONOutput(output, exitOK)
}
