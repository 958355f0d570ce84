// Package naming provides consistent naming functions for Azure resources.
//
// Every resource of a project is named after the project: synai-{project}-{type}
// for resource groups, environments and container apps. Storage resources
// only allow lowercase letters and digits, so their names drop the dashes:
// synai{project}{type}.
package naming
