// Package azure checks that Azure credentials work before a run starts.
//
// Provisioning itself goes through the az CLI; this package only uses the
// Azure SDK to confirm that DefaultAzureCredential can obtain a management
// token and that the target subscription is reachable.
package azure
