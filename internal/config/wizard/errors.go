package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errProjectNameRequired = errors.New("project name is required")
	errProjectNameInvalid  = errors.New("project name must be lowercase alphanumeric characters or hyphens, starting and ending with alphanumeric")
	errImageRequired       = errors.New("container image is required")
	errPortInvalid         = errors.New("port must be a number between 1 and 65535")
	errReplicasInvalid     = errors.New("replicas must be a number between 0 and 300")
	errReplicaRange        = errors.New("min replicas must not exceed max replicas")
)
