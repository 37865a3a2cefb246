// SPDX-License-Identifier: MPL-2.0

package hostenv

// Recorder is a Publisher that records every publication in order.
// Shared by tests across packages that need to observe orchestrator
// side effects without touching the process environment.
type Recorder struct {
	Variables map[string]string
	Paths     []string
	Outputs   map[string]string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Variables: make(map[string]string),
		Outputs:   make(map[string]string),
	}
}

// SetVariable records an environment variable publication.
func (r *Recorder) SetVariable(name, value string) { r.Variables[name] = value }

// PrependPath records a path publication.
func (r *Recorder) PrependPath(dir string) { r.Paths = append(r.Paths, dir) }

// SetOutput records a step output publication.
func (r *Recorder) SetOutput(name, value string) { r.Outputs[name] = value }
