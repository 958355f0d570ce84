package labels

import (
	"sort"
	"strings"
)

// Standard tag keys. Azure tag names may not contain '/', so keys use a
// "provseq-" prefix instead of a domain.
const (
	// KeyProject identifies the project a resource belongs to
	KeyProject = "provseq-project"

	// KeyStep names the definition step that created the resource
	KeyStep = "provseq-step"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "managed-by"
)

// ManagedByProvseq is the KeyManagedBy value.
const ManagedByProvseq = "provseq"

// LabelBuilder provides a fluent interface for building resource tags.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the project and managed-by tags set.
func NewLabelBuilder(project string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyProject:   project,
			KeyManagedBy: ManagedByProvseq,
		},
	}
}

// WithStep adds the step tag.
func (lb *LabelBuilder) WithStep(step string) *LabelBuilder {
	if step != "" {
		lb.labels[KeyStep] = step
	}
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Args renders the tags as sorted key=value words for az --tags.
func (lb *LabelBuilder) Args() string {
	return Args(lb.labels)
}

// Args renders tags as sorted key=value words for az --tags.
func Args(tags map[string]string) string {
	words := make([]string, 0, len(tags))
	for k, v := range tags {
		words = append(words, k+"="+v)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// QueryForProject returns a JMESPath filter matching the project's
// resources, for az --query.
func QueryForProject(project string) string {
	return "[?tags.\"" + KeyProject + "\"=='" + project + "']"
}
