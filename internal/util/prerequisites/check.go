// Package prerequisites checks that the command-line tools a definition
// calls are installed.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/imamik/provseq/internal/util/async"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// knownTools holds install hints for tools definitions commonly use.
var knownTools = map[string]Tool{
	"az": {
		Name:        "az",
		Description: "Azure CLI, used by the provisioning steps",
		InstallURL:  "https://learn.microsoft.com/cli/azure/install-azure-cli",
	},
	"kubectl": {
		Name:        "kubectl",
		Description: "Kubernetes CLI",
		InstallURL:  "https://kubernetes.io/docs/tasks/tools/",
	},
	"jq": {
		Name:        "jq",
		Description: "JSON processor",
		InstallURL:  "https://jqlang.github.io/jq/download/",
	},
}

// DefaultTools returns the tools checked when a definition names none.
func DefaultTools() []Tool {
	az := knownTools["az"]
	az.Required = true
	return []Tool{az}
}

// ToolsFor returns required Tool entries for the given binary names, sorted
// and without duplicates.
func ToolsFor(names []string) []Tool {
	seen := make(map[string]bool, len(names))
	var tools []Tool
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tool, ok := knownTools[name]
		if !ok {
			tool = Tool{Name: name, Description: "Called by a provisioning step"}
		}
		tool.Required = true
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if !tool.Required {
			continue
		}
		if tool.InstallURL != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		} else {
			missing = append(missing, tool.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Check verifies that the specified tools are available. Version probes for
// the tools found run in parallel.
func Check(ctx context.Context, tools []Tool) *CheckResults {
	results := &CheckResults{Results: make([]CheckResult, len(tools))}

	var probes []async.Task
	for i, tool := range tools {
		results.Results[i] = CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err != nil {
			results.Missing = append(results.Missing, tool)
			continue
		}
		results.Results[i].Found = true
		results.Results[i].Path = path

		r := &results.Results[i]
		probes = append(probes, async.Task{
			Name: tool.Name,
			Func: func(ctx context.Context) error {
				r.Version = getToolVersion(ctx, path)
				return nil
			},
		})
	}

	// versions are best effort; probes never fail
	_ = async.RunParallel(ctx, probes)
	return results
}

// versionTimeout bounds each version probe; az can take seconds to start.
const versionTimeout = 10 * time.Second

// getToolVersion attempts to get the version of a tool.
// Returns empty string if version cannot be determined.
func getToolVersion(ctx context.Context, path string) string {
	for _, flag := range []string{"--version", "version"} {
		probeCtx, cancel := context.WithTimeout(ctx, versionTimeout)
		// #nosec G204 - path was resolved from PATH for a tool the definition names
		output, err := exec.CommandContext(probeCtx, path, flag).Output()
		cancel()
		if err == nil {
			// Return first line of output, trimmed
			lines := strings.Split(string(output), "\n")
			return strings.TrimSpace(lines[0])
		}
	}
	return ""
}
