package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EndpointParameters carries optional routing hints for a model endpoint.
// Validated once when the request is parsed, never mutated afterwards except
// for variant pinning by the variant selector.
type EndpointParameters struct {
	TargetVariant   *string `json:"target_variant,omitempty"`
	TargetContainer *string `json:"target_container,omitempty"`
}

// ROI is an axis-aligned bounding box in pixel coordinates restricting which
// part of the image gets tiled.
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageRequest is a single image-processing job as submitted to the image
// request queue. One request fans out into many regions and many model
// invocations downstream, so the scheduler treats it as an expensive unit of
// work.
type ImageRequest struct {
	JobID         string `json:"job_id"`
	JobName       string `json:"job_name,omitempty"`
	ImageID       string `json:"image_id,omitempty"`
	ImageURL      string `json:"image_url"`
	ImageReadRole string `json:"image_read_role,omitempty"`

	// EndpointID is either the name of a managed model endpoint or a plain
	// http(s) URL for self-hosted models.
	EndpointID         string             `json:"endpoint_id"`
	EndpointParameters EndpointParameters `json:"endpoint_parameters,omitempty"`

	TileSize         int  `json:"tile_size"`
	TileOverlap      int  `json:"tile_overlap"`
	RegionOfInterest *ROI `json:"region_of_interest,omitempty"`
}

// ParseImageRequest decodes and validates a raw queue payload.
func ParseImageRequest(payload []byte) (*ImageRequest, error) {
	var req ImageRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *ImageRequest) Validate() error {
	if r.JobID == "" {
		return fmt.Errorf("%w: job_id is required", ErrInvalidPayload)
	}
	if r.EndpointID == "" {
		return fmt.Errorf("%w: endpoint_id is required", ErrInvalidPayload)
	}
	if r.ImageURL == "" {
		return fmt.Errorf("%w: image_url is required", ErrInvalidPayload)
	}
	if r.TileSize <= 0 {
		return fmt.Errorf("%w: tile_size must be positive", ErrInvalidPayload)
	}
	if r.TileOverlap < 0 || r.TileOverlap >= r.TileSize {
		return fmt.Errorf("%w: tile_overlap must be in [0, tile_size)", ErrInvalidPayload)
	}
	if tv := r.EndpointParameters.TargetVariant; tv != nil && *tv == "" {
		return fmt.Errorf("%w: target_variant must not be empty when set", ErrInvalidPayload)
	}
	return nil
}

// TargetVariant returns the pinned variant name, or "" if none is pinned.
func (r *ImageRequest) TargetVariant() string {
	if r.EndpointParameters.TargetVariant == nil {
		return ""
	}
	return *r.EndpointParameters.TargetVariant
}

// PinVariant records the serving variant the request is bound to.
func (r *ImageRequest) PinVariant(name string) {
	r.EndpointParameters.TargetVariant = &name
}

// IsHTTPEndpoint reports whether the endpoint identifier is a plain network
// address rather than a managed endpoint name. Plain addresses have no
// metadata to describe, so capacity falls back to configured defaults.
func IsHTTPEndpoint(endpointID string) bool {
	return strings.HasPrefix(endpointID, "http://") || strings.HasPrefix(endpointID, "https://")
}
