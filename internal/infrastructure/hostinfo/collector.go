// Package hostinfo gathers environmental facts about the host running the
// service, used to enrich analysis prompts and doctor reports.
package hostinfo

import (
	"context"
	"os"
	"os/exec"
	"runtime"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// Collector implements ports.HostInspector with tool detection on PATH.
type Collector struct {
	toolsToCheck []string
}

// NewCollector builds a collector probing the common diagnostic toolchain.
func NewCollector() *Collector {
	return &Collector{
		toolsToCheck: []string{"docker", "kubectl", "git", "npm", "python3", "go", "node", "make"},
	}
}

// Collect gathers the host snapshot. It never fails; missing facts are
// simply absent.
func (c *Collector) Collect(context.Context) domain.HostSnapshot {
	wd, _ := os.Getwd()
	return domain.HostSnapshot{
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		WorkingDir:     wd,
		AvailableTools: c.detectTools(),
	}
}

func (c *Collector) detectTools() []string {
	var available []string
	for _, tool := range c.toolsToCheck {
		if _, err := exec.LookPath(tool); err == nil {
			available = append(available, tool)
		}
	}
	return available
}

var _ ports.HostInspector = (*Collector)(nil)
