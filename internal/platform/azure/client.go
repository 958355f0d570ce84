package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// managementScope is the token scope for Azure Resource Manager.
const managementScope = "https://management.azure.com/.default"

// ResourceGroup is the subset of a resource group doctor reports.
type ResourceGroup struct {
	Name     string
	Location string
	State    string
}

// Client wraps the resource groups API for one subscription.
type Client struct {
	subscriptionID string
	cred           azcore.TokenCredential
	groups         *armresources.ResourceGroupsClient
}

// DefaultCredential returns the credential chain az login, environment
// variables and managed identity feed.
func DefaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}
	return cred, nil
}

// NewClient creates a client for subscriptionID. opts may be nil.
func NewClient(subscriptionID string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Client, error) {
	if subscriptionID == "" {
		return nil, errors.New("subscription id is required")
	}
	groups, err := armresources.NewResourceGroupsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource groups client: %w", err)
	}
	return &Client{subscriptionID: subscriptionID, cred: cred, groups: groups}, nil
}

// SubscriptionID returns the subscription the client targets.
func (c *Client) SubscriptionID() string {
	return c.subscriptionID
}

// CheckToken obtains a management token.
func (c *Client) CheckToken(ctx context.Context) error {
	if _, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{managementScope}}); err != nil {
		return fmt.Errorf("failed to obtain azure token: %w", err)
	}
	return nil
}

// ResourceGroups lists the subscription's resource groups sorted by name.
func (c *Client) ResourceGroups(ctx context.Context) ([]ResourceGroup, error) {
	var groups []ResourceGroup
	pager := c.groups.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list resource groups: %w", classify(err))
		}
		for _, g := range page.Value {
			if g == nil {
				continue
			}
			rg := ResourceGroup{Name: deref(g.Name), Location: deref(g.Location)}
			if g.Properties != nil {
				rg.State = deref(g.Properties.ProvisioningState)
			}
			groups = append(groups, rg)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// ResourceGroupExists reports whether name exists in the subscription.
func (c *Client) ResourceGroupExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.groups.CheckExistence(ctx, name, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check resource group %q: %w", name, classify(err))
	}
	return resp.Success, nil
}

// ErrUnauthorized is returned when ARM rejects the credential.
var ErrUnauthorized = errors.New("azure credential is not authorized for the subscription")

// classify maps ARM auth failures to ErrUnauthorized.
func classify(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w (%s)", ErrUnauthorized, respErr.ErrorCode)
		}
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
