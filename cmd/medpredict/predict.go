package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"medpredict/artifact"
	"medpredict/logging"
	"medpredict/ml"
	"medpredict/pipeline"
)

var predictInput string

var predictCmd = &cobra.Command{
	Use:   "predict <condition>",
	Short: "Run one prediction against the local artifacts",
	Long: `Reads a JSON feature object from --input (or stdin when omitted or "-"),
runs it through the same pipeline as the HTTP endpoint and prints the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "JSON file with the feature values")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := ml.ParseCondition(args[0])
	if err != nil {
		return &pipeline.UnknownConditionError{Name: args[0]}
	}

	var in io.Reader = cmd.InOrStdin()
	if predictInput != "" && predictInput != "-" {
		f, err := os.Open(predictInput)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	payload, err := pipeline.DecodePayload(in)
	if err != nil {
		return err
	}

	store := artifact.NewStore(artifact.NewFileLoader(cfg.Artifacts.Dir), logging.New("artifact"))
	p, err := pipeline.New(store, 0, logging.New("pipeline"))
	if err != nil {
		return err
	}
	result, err := p.Predict(cmd.Context(), c, payload)
	if err != nil {
		if pipeline.PublicMessage(err) == pipeline.InternalErrorMessage {
			return err
		}
		return errors.New(pipeline.PublicMessage(err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
