package model

import (
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

// Project is one GitLab project under observation. Rows are created and
// removed only through administrative action (REST API or Slack
// conversation).
type Project struct {
	ID        types.ProjectID
	Namespace string
	Name      string
}

// FullPath returns the fully qualified "namespace/name" project path
func (x *Project) FullPath() string {
	return x.Namespace + "/" + x.Name
}
