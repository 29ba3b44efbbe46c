// Package models defines the data exchanged with the host process.
package models

import "encoding/json"

// Instance is a registered game installation plus the directory packages
// are deployed into. Instances are created by the host and read-only here.
type Instance struct {
	Name           string `json:"name" jsonschema:"required,minLength=1,description=Unique instance name"`
	Path           string `json:"path" jsonschema:"required,description=Game installation directory"`
	DeploymentPath string `json:"deployment_dir" jsonschema:"description=Package deployment directory"`
}

// UnmarshalJSON accepts both the host's deployment_dir key and the
// deploymentPath spelling used by older hosts.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name           string `json:"name"`
		Path           string `json:"path"`
		DeploymentDir  string `json:"deployment_dir"`
		DeploymentPath string `json:"deploymentPath"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Name = raw.Name
	i.Path = raw.Path
	i.DeploymentPath = raw.DeploymentDir
	if i.DeploymentPath == "" {
		i.DeploymentPath = raw.DeploymentPath
	}
	return nil
}

// FindInstance returns the instance with the given name.
func FindInstance(instances []Instance, name string) (Instance, bool) {
	for _, inst := range instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instance{}, false
}
