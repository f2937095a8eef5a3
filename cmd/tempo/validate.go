package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/tempo/core/schema/validate"
)

type validateOutput struct {
	OK     bool   `json:"ok"`
	Schema string `json:"schema,omitempty"`
	Input  string `json:"input,omitempty"`
}

func runValidate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Validate a JSON file against one of the embedded wire schemas: " + strings.Join(validate.Names(), ", ") + ".")
	}

	flagSet := flag.NewFlagSet("validate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var schemaName string
	var inputPath string

	flagSet.StringVar(&schemaName, "schema", "", "schema name, e.g. action_descriptor")
	flagSet.StringVar(&inputPath, "input", "", "path to the JSON file")

	if err := flagSet.Parse(arguments); err != nil {
		return writeInvalidInput(err.Error())
	}
	if schemaName == "" || inputPath == "" {
		return writeInvalidInput(fmt.Sprintf("-schema and -input are required; schemas: %s", strings.Join(validate.Names(), ", ")))
	}

	if err := validate.ValidateFile(schemaName, inputPath); err != nil {
		return writeInvalidInput(err.Error())
	}
	return writeJSONOutput(validateOutput{OK: true, Schema: schemaName, Input: inputPath}, exitOK)
}
