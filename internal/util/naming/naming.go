package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Prefix is prepended to every resource name.
const Prefix = "synai"

// Naming functions for project resources.

func ResourceGroup(project string) string {
	return fmt.Sprintf("%s-%s-rg", Prefix, project)
}

func Environment(project string) string {
	return fmt.Sprintf("%s-%s-container-environment", Prefix, project)
}

func ContainerApp(project string) string {
	return fmt.Sprintf("%s-%s-container-app", Prefix, project)
}

func StorageAccount(project string) string {
	return fmt.Sprintf("%s%sstoacct", Prefix, compact(project))
}

func FileShare(project string) string {
	return fmt.Sprintf("%s%sfileshare", Prefix, compact(project))
}

func StorageMount(project string) string {
	return fmt.Sprintf("%s%sstoragemount", Prefix, compact(project))
}

func Volume(project string) string {
	return fmt.Sprintf("%s-azure-file-volume", project)
}

func WebUIName(project string) string {
	return fmt.Sprintf("Demo Site %s", project)
}

// compact strips the dashes storage names may not contain.
func compact(project string) string {
	return strings.ReplaceAll(project, "-", "")
}

var storageAccountPattern = regexp.MustCompile(`^[a-z0-9]{3,24}$`)

// ValidateStorageAccount checks Azure's storage account name rules:
// 3-24 characters, lowercase letters and digits only.
func ValidateStorageAccount(name string) error {
	if !storageAccountPattern.MatchString(name) {
		return fmt.Errorf("storage account name %q must be 3-24 lowercase letters or digits", name)
	}
	return nil
}
