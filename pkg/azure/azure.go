// Package azure addresses Azure OpenAI deployments: it maps OpenAI-style
// inbound paths to deployment operations and builds the outbound URLs.
//
// Azure ignores the model field of a request body and routes on the
// deployment name in the URI path instead:
//
//	https://{resource}.openai.azure.com/openai/deployments/{deployment}/{operation}?api-version={version}
package azure

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultAPIVersion is used when no api-version is configured.
	DefaultAPIVersion = "2023-12-01-preview"

	// APIKeyHeader carries the credential on requests to Azure OpenAI.
	APIKeyHeader = "api-key"

	bearerPrefix = "Bearer "
)

// Operation is the deployment-relative path of an Azure OpenAI API.
type Operation string

const (
	OperationChatCompletions  Operation = "chat/completions"
	OperationImageGenerations Operation = "images/generations"
	OperationCompletions      Operation = "completions"
)

var (
	// ErrNoResource is returned when neither a resource name nor an explicit
	// endpoint is configured.
	ErrNoResource = errors.New("azure resource name or endpoint is required")
)

// inboundRoutes maps OpenAI-style inbound paths to Azure operations.
var inboundRoutes = []struct {
	path string
	op   Operation
}{
	{"/v1/chat/completions", OperationChatCompletions},
	{"/v1/images/generations", OperationImageGenerations},
	{"/v1/completions", OperationCompletions},
}

// OperationForPath returns the operation served at an inbound path.
func OperationForPath(path string) (Operation, bool) {
	for _, r := range inboundRoutes {
		if r.path == path {
			return r.op, true
		}
	}
	return "", false
}

// InboundPaths returns the inbound paths that map to an operation, in a
// stable order.
func InboundPaths() []string {
	paths := make([]string, 0, len(inboundRoutes))
	for _, r := range inboundRoutes {
		paths = append(paths, r.path)
	}
	return paths
}

// ResourceEndpoint returns the public endpoint of an Azure OpenAI resource.
func ResourceEndpoint(resourceName string) string {
	return fmt.Sprintf("https://%s.openai.azure.com", resourceName)
}

// Endpoint builds deployment URLs for one Azure OpenAI resource.
type Endpoint struct {
	// BaseURL is the scheme and host of the resource, without a trailing slash.
	BaseURL string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string
}

// NewEndpoint creates an Endpoint. An explicit baseURL takes precedence over
// the URL derived from resourceName. An empty apiVersion falls back to
// DefaultAPIVersion.
func NewEndpoint(resourceName, baseURL, apiVersion string) (*Endpoint, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	resourceName = strings.TrimSpace(resourceName)

	switch {
	case baseURL != "":
		if _, err := url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("parsing endpoint %q: %w", baseURL, err)
		}
	case resourceName != "":
		baseURL = ResourceEndpoint(resourceName)
	default:
		return nil, ErrNoResource
	}

	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Endpoint{
		BaseURL:    baseURL,
		APIVersion: apiVersion,
	}, nil
}

// URL returns the full request URL for op on the given deployment.
func (e *Endpoint) URL(deployment string, op Operation) string {
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s",
		e.BaseURL,
		url.PathEscape(deployment),
		op,
		url.QueryEscape(e.APIVersion),
	)
}

// APIKeyFromAuthorization extracts the key Azure expects in the api-key
// header from an OpenAI-style Authorization header value.
func APIKeyFromAuthorization(authorization string) string {
	return strings.TrimPrefix(authorization, bearerPrefix)
}
