package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"medpredict/artifact"
	"medpredict/logging"
	"medpredict/ml"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Load every condition's artifacts and report their status",
	RunE:  runArtifacts,
}

func runArtifacts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	loader := artifact.NewFileLoader(cfg.Artifacts.Dir)
	store := artifact.NewStore(loader, logging.New("artifact"))
	statuses := store.Load(cmd.Context())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONDITION\tFEATURES\tSTATUS\tMODEL\tSCALER")
	unavailable := 0
	for _, st := range statuses {
		model, scaler := loader.Paths(st.Condition)
		status := "ok"
		if !st.Available {
			status = "unavailable: " + st.Error
			unavailable++
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", st.Condition, ml.FeatureCount(st.Condition), status, model, scaler)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if unavailable > 0 {
		return fmt.Errorf("%d of %d conditions unavailable", unavailable, len(statuses))
	}
	return nil
}
