// SPDX-License-Identifier: MPL-2.0

// Package hostenv propagates environment bindings and step outputs to
// the host process, GitHub-Actions style: appends to the files named by
// GITHUB_ENV, GITHUB_PATH, and GITHUB_OUTPUT, plus mutation of the
// current process environment so later in-process work observes the same
// bindings.
//
// Publishing is fire-and-forget: failures to reach the host files are
// logged and degrade to process-env-only publication, never failing the
// run that produced a perfectly good installation.
package hostenv

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Publisher is the propagation surface the orchestrator publishes
// through. All operations are idempotent and safe to repeat.
type Publisher interface {
	// SetVariable exports an environment variable for subsequent steps.
	SetVariable(name, value string)
	// PrependPath puts dir at the front of the execution search path.
	PrependPath(dir string)
	// SetOutput emits a named step output.
	SetOutput(name, value string)
}

// ActionsPublisher publishes through the GitHub Actions command files
// and the current process environment.
type ActionsPublisher struct {
	log    *log.Logger
	getenv func(string) string
	setenv func(string, string) error
}

// NewActionsPublisher returns a Publisher wired to the real process
// environment.
func NewActionsPublisher(logger *log.Logger) *ActionsPublisher {
	return &ActionsPublisher{
		log:    logger,
		getenv: os.Getenv,
		setenv: os.Setenv,
	}
}

// SetVariable exports name=value to the current process and appends it
// to the GITHUB_ENV file when present.
func (p *ActionsPublisher) SetVariable(name, value string) {
	if err := p.setenv(name, value); err != nil {
		p.warn("setting process environment", name, err)
	}
	p.appendCommand("GITHUB_ENV", keyValueRecord(name, value))
}

// PrependPath puts dir at the front of PATH in the current process and
// appends it to the GITHUB_PATH file when present.
func (p *ActionsPublisher) PrependPath(dir string) {
	current := p.getenv("PATH")
	updated := dir
	if current != "" {
		updated = dir + string(os.PathListSeparator) + current
	}
	if err := p.setenv("PATH", updated); err != nil {
		p.warn("prepending PATH", dir, err)
	}
	p.appendCommand("GITHUB_PATH", dir+"\n")
}

// SetOutput appends a named output to the GITHUB_OUTPUT file when
// present.
func (p *ActionsPublisher) SetOutput(name, value string) {
	p.appendCommand("GITHUB_OUTPUT", keyValueRecord(name, value))
}

// appendCommand appends a record to the command file named by envVar.
// Absence of the variable means we are not running under a workflow;
// that is normal and silently skipped.
func (p *ActionsPublisher) appendCommand(envVar, record string) {
	path := p.getenv(envVar)
	if path == "" {
		return
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		p.warn("opening command file", envVar, err)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(record); err != nil {
		p.warn("appending to command file", envVar, err)
	}
}

// keyValueRecord renders one name/value pair in the command-file format.
// Multiline values use the heredoc form with a random delimiter so a
// value can never terminate its own record.
func keyValueRecord(name, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", name, value)
	}

	delimiter := "javaup_" + randomToken()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}

func randomToken() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Crypto randomness is only collision avoidance here; a fixed
		// fallback still produces a valid record.
		return "delimiter"
	}
	return hex.EncodeToString(buf[:])
}

func (p *ActionsPublisher) warn(op, subject string, err error) {
	if p.log != nil {
		p.log.Warn("environment publication degraded", "op", op, "subject", subject, "err", err)
	}
}
