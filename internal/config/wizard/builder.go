package wizard

import (
	"strconv"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/util/labels"
	"github.com/imamik/provseq/internal/util/naming"
)

// AppConfigFile is where the container app configuration is dumped before
// it is re-applied with the volume mount.
const AppConfigFile = "app.yaml"

// volumeMountPath is where open-webui keeps its data.
const volumeMountPath = "/app/backend/data"

// sub is appended to every az command so the subscription credential picks
// the target subscription.
const sub = " --subscription ${subscription}"

// tags returns the --tags flag for a create command.
func tags(project, step string) string {
	return " --tags " + labels.NewLabelBuilder(project).WithStep(step).Args()
}

// BuildDefinition creates the Azure Container Apps definition from the
// wizard result.
func BuildDefinition(result *WizardResult) *config.Definition {
	p := result.ProjectName

	def := &config.Definition{
		Name:        p,
		Description: "Azure Container App for " + naming.WebUIName(p),
		Tools:       []string{"az", "jq"},
		Variables: map[string]string{
			"project":           p,
			"location":          result.Location,
			"resource_group":    naming.ResourceGroup(p),
			"environment":       naming.Environment(p),
			"storage_account":   naming.StorageAccount(p),
			"file_share":        naming.FileShare(p),
			"storage_mount":     naming.StorageMount(p),
			"container_app":     naming.ContainerApp(p),
			"volume":            naming.Volume(p),
			"webui_name":        naming.WebUIName(p),
			"image":             result.Image,
			"registry_server":   result.RegistryServer,
			"registry_username": result.RegistryUsername,
			"target_port":       strconv.Itoa(result.TargetPort),
			"cpu":               result.CPU,
			"memory":            result.Memory,
			"min_replicas":      strconv.Itoa(result.MinReplicas),
			"max_replicas":      strconv.Itoa(result.MaxReplicas),
			"share_quota":       strconv.Itoa(result.ShareQuotaGiB),
			"app_config_file":   AppConfigFile,
		},
		Credentials: []config.Credential{
			{Name: "subscription", Env: "AZURE_SUBSCRIPTION_ID", Description: "Azure subscription to deploy into"},
			{Name: "registry_password", Env: "REGISTRY_PASSWORD", Description: "Password for the container registry"},
		},
	}

	def.Steps = []config.StepConfig{
		{
			Name:        "resource-group",
			Description: "Create the resource group",
			Command:     "az group create --name ${resource_group} --location ${location}" + tags(p, "resource-group") + sub,
			Outputs:     []config.OutputConfig{{Name: "resource_group_id", JSON: "id"}},
		},
		{
			Name:        "environment",
			Description: "Create the container app environment",
			Command:     "az containerapp env create --name ${environment} --resource-group ${resource_group} --location ${location}" +
				tags(p, "environment") + sub,
			Inputs:  []string{"resource_group_id"},
			Outputs: []config.OutputConfig{{Name: "environment_id", JSON: "id"}},
		},
		{
			Name:        "storage-account",
			Description: "Create the storage account",
			Command: "az storage account create --name ${storage_account} --resource-group ${resource_group} --location ${location}" +
				" --sku Standard_LRS --kind StorageV2 --enable-large-file-share" + tags(p, "storage-account") + sub,
			Inputs:  []string{"resource_group_id"},
			Outputs: []config.OutputConfig{{Name: "storage_account_id", JSON: "id"}},
		},
		{
			Name:        "file-share",
			Description: "Create the file share",
			Command: "az storage share-rm create --name ${file_share} --storage-account ${storage_account} --resource-group ${resource_group}" +
				" --quota ${share_quota} --enabled-protocols SMB" + sub,
			Inputs:  []string{"storage_account_id"},
			Outputs: []config.OutputConfig{{Name: "file_share_id", JSON: "id"}},
		},
		{
			Name:        "storage-key",
			Description: "Retrieve the storage account key",
			Command:     "az storage account keys list --account-name ${storage_account} --resource-group ${resource_group} --query [0].value --output tsv" + sub,
			Inputs:      []string{"storage_account_id"},
			Outputs:     []config.OutputConfig{{Name: "storage_key", Rule: "lastLine", Sensitive: true}},
		},
		{
			Name:        "storage-mount",
			Description: "Mount the file share into the environment",
			Command: "az containerapp env storage set --name ${environment} --resource-group ${resource_group} --storage-name ${storage_mount}" +
				" --azure-file-account-name ${storage_account} --azure-file-account-key ${storage_key}" +
				" --azure-file-share-name ${file_share} --access-mode ReadWrite" + sub,
			Inputs:  []string{"environment_id", "file_share_id"},
			Outputs: []config.OutputConfig{{Name: "storage_mount_id", JSON: "id"}},
		},
		{
			Name:        "container-app",
			Description: "Create the container app",
			Command: "az containerapp create --name ${container_app} --resource-group ${resource_group} --environment ${environment}" +
				" --image ${image} --registry-server ${registry_server} --registry-username ${registry_username} --registry-password ${registry_password}" +
				" --ingress external --target-port ${target_port} --cpu ${cpu} --memory ${memory}" +
				" --min-replicas ${min_replicas} --max-replicas ${max_replicas}" +
				` --env-vars "WEBUI_NAME=${webui_name}" ENABLE_PERSISTENT_CONFIG=False` + tags(p, "container-app") + sub,
			Inputs:  []string{"environment_id"},
			Outputs: []config.OutputConfig{{Name: "fqdn", JSON: "properties.configuration.ingress.fqdn"}},
		},
		{
			Name:        "app-config",
			Description: "Dump the app configuration with the volume mount added",
			Command: `sh -c "az containerapp show --name ${container_app} --resource-group ${resource_group} --output json` + sub +
				` | jq '.properties.template.volumes = [{name: \"${volume}\", storageName: \"${storage_mount}\", storageType: \"AzureFile\"}]` +
				` | .properties.template.containers[0].volumeMounts = [{volumeName: \"${volume}\", mountPath: \"` + volumeMountPath + `\"}]'"`,
			Inputs:  []string{"fqdn", "storage_mount_id"},
			Outputs: []config.OutputConfig{{Name: "app_config_name", JSON: "name"}},
			Save:    AppConfigFile,
		},
		{
			Name:        "apply-config",
			Description: "Update the container app from the dumped configuration",
			Command:     "az containerapp update --name ${app_config_name} --resource-group ${resource_group} --yaml ${app_config_file}" + sub,
			Outputs:     []config.OutputConfig{{Name: "revision", JSON: "properties.latestRevisionName"}},
		},
	}

	return def
}
