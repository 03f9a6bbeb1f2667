package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"sensorpredict/ml"
	"sensorpredict/predict"
)

var errRejected = errors.New("batch rejected")

// newPredictCmd 输出与 /predict 响应完全相同的内容
func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict [model.json] [batch.json]",
		Short: "Run a batch file through the prediction pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := ml.LoadModel(args[0])
			if err != nil {
				return err
			}
			body, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			svc, err := predict.NewService(model)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			preds, err := svc.Predict(cmd.Context(), body)
			if err != nil {
				if encErr := enc.Encode(map[string]string{"error": err.Error()}); encErr != nil {
					return encErr
				}
				return errRejected
			}
			return enc.Encode(map[string][]float64{"prediction": preds})
		},
	}
}
