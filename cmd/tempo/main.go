package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		printUsage()
		return exitInvalidInput
	}
	if arguments[1] == "--explain" {
		return writeExplain("Tempo is an offline-first CLI for approval-gated task and calendar actions: it evaluates action descriptors, detects conflicts and duplicates, and re-validates approved resubmissions.")
	}

	switch arguments[1] {
	case "evaluate":
		return runEvaluate(arguments[2:])
	case "policy":
		return runPolicy(arguments[2:])
	case "slots":
		return runSlots(arguments[2:])
	case "validate":
		return runValidate(arguments[2:])
	case "version", "--version", "-v":
		if hasExplainFlag(arguments[2:]) {
			return writeExplain("Print the CLI version.")
		}
		fmt.Println("tempo", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  tempo evaluate -input descriptor.json [-snapshot items.json] [-policy policy.yaml] [-config path]")
	fmt.Println("  tempo policy [-digest] [-policy policy.yaml]")
	fmt.Println("  tempo slots -start RFC3339 [-duration 1h] [-pref morning|afternoon|evening] [-busy busy.json] [-config path]")
	fmt.Println("  tempo validate -schema <name> -input file.json")
	fmt.Println("  tempo version")
}
