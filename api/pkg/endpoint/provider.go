package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

//go:generate mockgen -source $GOFILE -destination provider_mocks.go -package $GOPACKAGE

// MetadataProvider describes managed model endpoints. Calls may fail
// transiently; callers fall back to cached values rather than blocking the
// scheduling loop.
type MetadataProvider interface {
	DescribeEndpoint(ctx context.Context, name string) (*types.EndpointInfo, error)
	ListTags(ctx context.Context, resourceID string) (map[string]string, error)
}

// FileProvider serves endpoint metadata from a JSON file on disk. Deployments
// without a live control plane describe their endpoint fleet statically.
type FileProvider struct {
	endpoints map[string]*types.EndpointInfo
	tags      map[string]map[string]string
}

var _ MetadataProvider = &FileProvider{}

type fileProviderDoc struct {
	Endpoints []*types.EndpointInfo        `json:"endpoints"`
	Tags      map[string]map[string]string `json:"tags,omitempty"`
}

func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoint metadata file: %w", err)
	}

	var doc fileProviderDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse endpoint metadata file: %w", err)
	}

	endpoints := make(map[string]*types.EndpointInfo, len(doc.Endpoints))
	for _, info := range doc.Endpoints {
		if info.Name == "" {
			return nil, fmt.Errorf("endpoint metadata file contains an endpoint with no name")
		}
		endpoints[info.Name] = info
	}

	tags := doc.Tags
	if tags == nil {
		tags = map[string]map[string]string{}
	}

	return &FileProvider{endpoints: endpoints, tags: tags}, nil
}

func (p *FileProvider) DescribeEndpoint(_ context.Context, name string) (*types.EndpointInfo, error) {
	info, ok := p.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	return info, nil
}

func (p *FileProvider) ListTags(_ context.Context, resourceID string) (map[string]string, error) {
	return p.tags[resourceID], nil
}
