package types

// VariantInfo describes one weighted serving variant of a managed model
// endpoint.
type VariantInfo struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`

	// Serverless variants scale elastically and publish a max-concurrency
	// figure directly; fixed variants report an instance count instead.
	Serverless     bool `json:"serverless"`
	MaxConcurrency int  `json:"max_concurrency,omitempty"`
	InstanceCount  int  `json:"instance_count,omitempty"`
}

// EndpointInfo is the cached descriptor for a managed model endpoint.
type EndpointInfo struct {
	Name       string        `json:"name"`
	ResourceID string        `json:"resource_id"`
	Variants   []VariantInfo `json:"variants"`
}

// Variant returns the named variant, or nil if the endpoint has no variant by
// that name.
func (e *EndpointInfo) Variant(name string) *VariantInfo {
	for i := range e.Variants {
		if e.Variants[i].Name == name {
			return &e.Variants[i]
		}
	}
	return nil
}

// TotalInstances sums instance counts across all variants. Serverless
// variants report no instances and contribute zero.
func (e *EndpointInfo) TotalInstances() int {
	total := 0
	for _, v := range e.Variants {
		total += v.InstanceCount
	}
	return total
}
