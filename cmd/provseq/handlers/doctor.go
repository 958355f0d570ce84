package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/executor"
	"github.com/imamik/provseq/internal/platform/azure"
	"github.com/imamik/provseq/internal/util/prerequisites"
)

// subscriptionEnv is read when the definition declares no credential for it.
const subscriptionEnv = "AZURE_SUBSCRIPTION_ID"

// azureChecker is satisfied by *azure.Client.
type azureChecker interface {
	Check(ctx context.Context, resourceGroup string) (*azure.CheckResult, error)
}

// Factory function variables for doctor - can be replaced in tests.
var (
	// checkTools looks up binaries in PATH.
	checkTools = prerequisites.Check

	// newAzureChecker authenticates with DefaultAzureCredential.
	newAzureChecker = func(subscriptionID string) (azureChecker, error) {
		cred, err := azure.DefaultCredential()
		if err != nil {
			return nil, err
		}
		return azure.NewClient(subscriptionID, cred, nil)
	}
)

// Doctor checks that a definition can run on this machine: required tools
// are in PATH and credentials are set. With checkAzure it also verifies that
// DefaultAzureCredential can read the target subscription.
//
// Without a definition file only the default tools are checked.
func Doctor(ctx context.Context, path string, checkAzure bool) error {
	def, err := doctorDefinition(path)
	if err != nil {
		return err
	}

	var problems []error

	fmt.Println(titleStyle.Render("provseq doctor"))
	if def != nil {
		fmt.Println(dimStyle.Render(def.Path))
	}

	fmt.Println()
	fmt.Println(sectionStyle.Render("Tools"))
	results := checkTools(ctx, toolsFor(def))
	for _, r := range results.Results {
		extra := r.Version
		if !r.Found {
			extra = "not found"
			if r.Tool.InstallURL != "" {
				extra += ", see " + r.Tool.InstallURL
			}
		}
		printRow(r.Tool.Name, r.Found, extra)
	}
	if err := results.Error(); err != nil {
		problems = append(problems, err)
	}

	if def != nil && len(def.Credentials) > 0 {
		fmt.Println()
		fmt.Println(sectionStyle.Render("Credentials"))
		for _, c := range def.Credentials {
			v, ok := lookupEnv(c.EnvName())
			set := ok && v != ""
			printRow(c.Name, set, c.EnvName())
		}
		if _, err := def.ResolveCredentials(lookupEnv); err != nil {
			problems = append(problems, err)
		}
	}

	if checkAzure {
		fmt.Println()
		fmt.Println(sectionStyle.Render("Azure"))
		if err := doctorAzure(ctx, def); err != nil {
			printRow("access", false, err.Error())
			problems = append(problems, err)
		}
	}

	fmt.Println()
	if len(problems) > 0 {
		return fmt.Errorf("doctor found %s: %w", english.Plural(len(problems), "problem", ""), errors.Join(problems...))
	}
	fmt.Println(greenStyle.Render("All checks passed."))
	return nil
}

// doctorDefinition loads path, or the auto-detected definition. A missing
// definition is not an error when no path was given.
func doctorDefinition(path string) (*config.Definition, error) {
	if path == "" {
		found, err := findDefinitionFile()
		if err != nil {
			return nil, nil
		}
		path = found
	}
	return loadDefinition(path)
}

// toolsFor returns the definition's tools plus the program of every step.
func toolsFor(def *config.Definition) []prerequisites.Tool {
	if def == nil {
		return prerequisites.DefaultTools()
	}
	names := append([]string(nil), def.Tools...)
	for _, s := range def.Steps {
		args, err := executor.Split(s.Command)
		if err != nil || len(args) == 0 {
			continue
		}
		// a placeholder program cannot be looked up before the run
		if !strings.Contains(args[0], "${") {
			names = append(names, args[0])
		}
	}
	if len(names) == 0 {
		return prerequisites.DefaultTools()
	}
	return prerequisites.ToolsFor(names)
}

func doctorAzure(ctx context.Context, def *config.Definition) error {
	env := subscriptionEnv
	resourceGroup := ""
	if def != nil {
		for _, c := range def.Credentials {
			if c.Name == "subscription" {
				env = c.EnvName()
			}
		}
		resourceGroup = def.Variables["resource_group"]
	}

	sub, _ := lookupEnv(env)
	if sub == "" {
		return fmt.Errorf("%s is not set", env)
	}

	client, err := newAzureChecker(sub)
	if err != nil {
		return fmt.Errorf("failed to create Azure client: %w", err)
	}
	res, err := client.Check(ctx, resourceGroup)
	if err != nil {
		return fmt.Errorf("azure check failed: %w", err)
	}

	printRow("subscription", true, res.SubscriptionID)
	printRow("resource groups", true, english.Plural(len(res.ResourceGroups), "visible group", ""))
	if res.ResourceGroup != "" {
		state := "will be created"
		if res.Exists {
			state = "exists"
		}
		printRow(res.ResourceGroup, true, state)
	}
	return nil
}

func printRow(name string, ok bool, extra string) {
	if extra != "" {
		fmt.Printf("  %s %-20s %s\n", checkIndicator(ok), name, dimStyle.Render(extra))
		return
	}
	fmt.Printf("  %s %s\n", checkIndicator(ok), name)
}
