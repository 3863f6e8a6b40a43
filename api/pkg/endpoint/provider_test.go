package endpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeMetadataFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestFileProvider(t *testing.T) {
	path := writeMetadataFile(t, `{
		"endpoints": [
			{
				"name": "aircraft-detector",
				"resource_id": "ep-123",
				"variants": [
					{"name": "primary", "weight": 1, "instance_count": 4},
					{"name": "canary", "weight": 0.1, "serverless": true, "max_concurrency": 20}
				]
			}
		],
		"tags": {
			"ep-123": {"per-instance-concurrency": "8"}
		}
	}`)

	provider, err := NewFileProvider(path)
	require.NoError(t, err)

	ctx := context.Background()
	info, err := provider.DescribeEndpoint(ctx, "aircraft-detector")
	require.NoError(t, err)
	require.Equal(t, "ep-123", info.ResourceID)
	require.Len(t, info.Variants, 2)
	require.Equal(t, 4, info.TotalInstances())

	tags, err := provider.ListTags(ctx, "ep-123")
	require.NoError(t, err)
	require.Equal(t, "8", tags["per-instance-concurrency"])

	_, err = provider.DescribeEndpoint(ctx, "missing")
	require.Error(t, err)

	tags, err = provider.ListTags(ctx, "ep-unknown")
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestFileProviderRejectsBadFiles(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	_, err = NewFileProvider(writeMetadataFile(t, `{{`))
	require.Error(t, err)

	_, err = NewFileProvider(writeMetadataFile(t, `{"endpoints":[{"variants":[]}]}`))
	require.Error(t, err)
}
