// SPDX-License-Identifier: MPL-2.0

// Package diagnose derives structured diagnostic reports from remote
// resolution and download failures.
//
// Classification is purely a side channel: callers log the report and
// propagate the original error unchanged. The match is ordered and
// mutually exclusive over a small closed set of categories, so every
// failure lands in exactly one bucket.
package diagnose

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"syscall"

	"javaup-cli/internal/distro"
)

// Category identifies one diagnostic bucket.
type Category string

// The closed set of diagnostic categories.
const (
	CategoryNetwork          Category = "network"
	CategoryPermissionDenied Category = "permission-denied"
	CategoryRateLimited      Category = "rate-limited"
	CategoryHTTP             Category = "http"
	CategoryAggregate        Category = "aggregate"
	CategoryMulti            Category = "multi"
	CategoryUnknown          Category = "unknown"
)

type (
	// Report is the structured description of one failure, suitable for
	// logging. Only the fields relevant to the category are populated.
	Report struct {
		Category Category
		// Message is the original error text.
		Message string
		// Code is the conventional network error code (ETIMEDOUT,
		// ECONNREFUSED, ENOTFOUND) for CategoryNetwork.
		Code string
		// Address is the remote endpoint involved, when known.
		Address string
		// Timeout reports that the failure was a timeout.
		Timeout bool
		// Status is the HTTP status for CategoryHTTP and its
		// specializations.
		Status int
		// Attempts describes each sub-failure of an aggregate failure.
		Attempts []Attempt
		// Causes holds the flattened child messages for CategoryMulti.
		Causes []string
		// URLHint is a best-effort URL extracted from the message for
		// CategoryUnknown.
		URLHint string
	}

	// Attempt is one endpoint attempt within an aggregate failure.
	Attempt struct {
		Code    string
		Address string
		Message string
	}
)

// urlPattern extracts an embedded URL from unstructured error text.
var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// Classify inspects err and derives its diagnostic category. It never
// modifies or wraps err; the caller re-raises the original unchanged.
func Classify(err error) Report {
	if err == nil {
		return Report{Category: CategoryUnknown}
	}

	msg := err.Error()

	// Joined errors first: a multi-endpoint failure would otherwise be
	// swallowed by the single-error checks below, because errors.As
	// traverses multi-error trees. A join with a single child is not a
	// multi-failure; it classifies as its child would.
	if children := multiChildren(err); len(children) > 1 {
		return classifyJoined(msg, children)
	}

	if code, address, timeout, ok := networkFailure(err); ok {
		return Report{
			Category: CategoryNetwork,
			Message:  msg,
			Code:     code,
			Address:  address,
			Timeout:  timeout,
		}
	}

	var statusErr *distro.StatusError
	if errors.As(err, &statusErr) {
		report := Report{Message: msg, Status: statusErr.StatusCode, Address: statusErr.URL}
		switch statusErr.StatusCode {
		case http.StatusForbidden:
			report.Category = CategoryPermissionDenied
		case http.StatusTooManyRequests:
			report.Category = CategoryRateLimited
		default:
			report.Category = CategoryHTTP
		}
		return report
	}

	return Report{
		Category: CategoryUnknown,
		Message:  msg,
		URLHint:  urlPattern.FindString(msg),
	}
}

// classifyJoined buckets a joined error: Aggregate when at least one
// child is a network-level failure (the endpoint attempts are what the
// operator needs to see), Multi otherwise.
func classifyJoined(msg string, children []error) Report {
	var (
		attempts   []Attempt
		causes     []string
		anyNetwork bool
	)

	for _, child := range children {
		code, address, _, ok := networkFailure(child)
		if ok {
			anyNetwork = true
		}
		attempts = append(attempts, Attempt{Code: code, Address: address, Message: child.Error()})
		causes = append(causes, child.Error())
	}

	if anyNetwork {
		return Report{Category: CategoryAggregate, Message: msg, Attempts: attempts}
	}
	return Report{Category: CategoryMulti, Message: msg, Causes: causes}
}

// multiChildren walks the single-unwrap chain of err looking for a
// joined error and returns its children, or nil.
func multiChildren(err error) []error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			return joined.Unwrap()
		}
	}
	return nil
}

// networkFailure recognizes connection-level failures and extracts the
// conventional code plus endpoint context.
func networkFailure(err error) (code, address string, timeout, ok bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "ENOTFOUND", dnsErr.Name, dnsErr.IsTimeout, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Addr != nil {
			address = opErr.Addr.String()
		}
		switch {
		case errors.Is(opErr.Err, syscall.ETIMEDOUT):
			return "ETIMEDOUT", address, true, true
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return "ECONNREFUSED", address, false, true
		case opErr.Timeout():
			return "ETIMEDOUT", address, true, true
		}
		return strings.ToUpper(opErr.Op), address, false, true
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		switch {
		case errors.Is(sysErr.Err, syscall.ETIMEDOUT):
			return "ETIMEDOUT", "", true, true
		case errors.Is(sysErr.Err, syscall.ECONNREFUSED):
			return "ECONNREFUSED", "", false, true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT", "", true, true
	}

	return "", "", false, false
}

// String renders the report for log output.
func (r Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]", r.Category)

	switch r.Category {
	case CategoryNetwork:
		fmt.Fprintf(&b, " %s", r.Code)
		if r.Address != "" {
			fmt.Fprintf(&b, " address=%s", r.Address)
		}
		if r.Timeout {
			b.WriteString(" (timeout)")
		}
	case CategoryPermissionDenied, CategoryRateLimited, CategoryHTTP:
		fmt.Fprintf(&b, " status=%d", r.Status)
		if r.Address != "" {
			fmt.Fprintf(&b, " url=%s", r.Address)
		}
	case CategoryAggregate:
		fmt.Fprintf(&b, " %d attempts:", len(r.Attempts))
		for _, a := range r.Attempts {
			fmt.Fprintf(&b, " {%s %s}", a.Code, a.Address)
		}
	case CategoryMulti:
		fmt.Fprintf(&b, " %d errors", len(r.Causes))
	case CategoryUnknown:
		if r.URLHint != "" {
			fmt.Fprintf(&b, " url=%s", r.URLHint)
		}
	}

	fmt.Fprintf(&b, " %s", r.Message)
	return b.String()
}
