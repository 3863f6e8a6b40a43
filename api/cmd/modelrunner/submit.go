package modelrunner

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/queue"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// newSubmitCmd publishes a single image request to the queue, mostly useful
// for smoke-testing a deployment.
func newSubmitCmd() *cobra.Command {
	var (
		endpointID  string
		imageURL    string
		tileSize    int
		tileOverlap int
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an image request to the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}

			req := &types.ImageRequest{
				JobID:       uuid.NewString(),
				EndpointID:  endpointID,
				ImageURL:    imageURL,
				TileSize:    tileSize,
				TileOverlap: tileOverlap,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			payload, err := json.Marshal(req)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			q, err := queue.NewNatsQueue(ctx, cfg.Queue)
			if err != nil {
				return err
			}
			defer q.Close()

			if err := q.Publish(ctx, payload); err != nil {
				return err
			}

			fmt.Println(req.JobID)
			return nil
		},
	}

	cmd.Flags().StringVar(&endpointID, "endpoint", "", "target endpoint name or URL")
	cmd.Flags().StringVar(&imageURL, "image", "", "image URL, e.g. s3://imagery/scene.png")
	cmd.Flags().IntVar(&tileSize, "tile-size", 512, "tile size in pixels")
	cmd.Flags().IntVar(&tileOverlap, "tile-overlap", 0, "tile overlap in pixels")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
