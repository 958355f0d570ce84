package azure

import (
	"context"
)

// CheckResult summarises an access check.
type CheckResult struct {
	SubscriptionID string
	ResourceGroups []ResourceGroup

	// ResourceGroup and Exists are set when a group name was given.
	ResourceGroup string
	Exists        bool
}

// Check obtains a token, lists resource groups and, when resourceGroup is
// not empty, reports whether it already exists.
func (c *Client) Check(ctx context.Context, resourceGroup string) (*CheckResult, error) {
	if err := c.CheckToken(ctx); err != nil {
		return nil, err
	}

	groups, err := c.ResourceGroups(ctx)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{SubscriptionID: c.subscriptionID, ResourceGroups: groups, ResourceGroup: resourceGroup}
	if resourceGroup != "" {
		if res.Exists, err = c.ResourceGroupExists(ctx, resourceGroup); err != nil {
			return nil, err
		}
	}
	return res, nil
}
