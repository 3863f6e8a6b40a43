package tiling

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

//go:generate mockgen -source $GOFILE -destination regions_mocks.go -package $GOPACKAGE

// RegionCalculator splits an image into the sub-regions the tile workers
// will process. Implementations report types.ErrUnreadableImage when the
// image cannot be opened or decoded, which the buffer treats as a permanent
// failure.
type RegionCalculator interface {
	CalculateRegions(ctx context.Context, req *types.ImageRequest) ([]types.Region, error)
}

// BlobRegionCalculator reads image headers from a blob bucket and produces an
// overlapping tile grid covering the image (or its region of interest).
type BlobRegionCalculator struct {
	bucket *blob.Bucket
}

var _ RegionCalculator = &BlobRegionCalculator{}

func NewBlobRegionCalculator(bucket *blob.Bucket) *BlobRegionCalculator {
	return &BlobRegionCalculator{bucket: bucket}
}

func (c *BlobRegionCalculator) CalculateRegions(ctx context.Context, req *types.ImageRequest) ([]types.Region, error) {
	key, err := blobKey(req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnreadableImage, err)
	}

	reader, err := c.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", types.ErrUnreadableImage, req.ImageURL, err)
	}
	defer reader.Close()

	cfg, format, err := image.DecodeConfig(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", types.ErrUnreadableImage, req.ImageURL, err)
	}

	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	if roi := req.RegionOfInterest; roi != nil {
		bounds = bounds.Intersect(image.Rect(roi.X, roi.Y, roi.X+roi.Width, roi.Y+roi.Height))
		if bounds.Empty() {
			return nil, fmt.Errorf("%w: region of interest does not intersect image", types.ErrUnreadableImage)
		}
	}

	regions := gridRegions(bounds, req.TileSize, req.TileOverlap)

	log.Debug().
		Str("job_id", req.JobID).
		Str("format", format).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("region_count", len(regions)).
		Msg("calculated image regions")

	return regions, nil
}

// gridRegions tiles bounds row-major with the given stride. Edge regions are
// clipped to the image rather than padded.
func gridRegions(bounds image.Rectangle, tileSize, tileOverlap int) []types.Region {
	stride := tileSize - tileOverlap
	if stride <= 0 {
		stride = tileSize
	}

	var regions []types.Region
	row := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		col := 0
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r := image.Rect(x, y, x+tileSize, y+tileSize).Intersect(bounds)
			regions = append(regions, types.Region{
				ID:     fmt.Sprintf("r%dc%d", row, col),
				X:      r.Min.X,
				Y:      r.Min.Y,
				Width:  r.Dx(),
				Height: r.Dy(),
			})
			col++
		}
		row++
	}
	return regions
}

// blobKey extracts the bucket key from an image URL. Both s3://bucket/key
// URLs and bare keys are accepted; the bucket itself comes from deployment
// configuration.
func blobKey(imageURL string) (string, error) {
	if !strings.Contains(imageURL, "://") {
		return imageURL, nil
	}
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("image URL %q has no object key", imageURL)
	}
	return key, nil
}
