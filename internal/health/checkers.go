// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DefaultDialTimeout bounds the TCP dial to the generation API.
const DefaultDialTimeout = 2 * time.Second

// UpstreamChecker reports whether the generation API accepts TCP connections.
// An unreachable API degrades readiness: the server still serves existing media.
type UpstreamChecker struct {
	name    string
	baseURL string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewUpstreamChecker creates a checker for the API at baseURL.
func NewUpstreamChecker(name, baseURL string) *UpstreamChecker {
	d := &net.Dialer{}
	return &UpstreamChecker{
		name:    name,
		baseURL: baseURL,
		timeout: DefaultDialTimeout,
		dial:    d.DialContext,
	}
}

func (c *UpstreamChecker) Name() string {
	return c.name
}

func (c *UpstreamChecker) Check(ctx context.Context) CheckResult {
	addr, err := hostPort(c.baseURL)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   err.Error(),
			Message: "generation API unreachable",
		}
	}
	_ = conn.Close()
	return CheckResult{Status: StatusHealthy, Message: addr + " reachable"}
}

func hostPort(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", rawURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// WritableDirChecker checks that downloads can be written to a directory.
type WritableDirChecker struct {
	name string
	path string
}

// NewWritableDirChecker creates a checker for path.
func NewWritableDirChecker(name, path string) *WritableDirChecker {
	return &WritableDirChecker{name: name, path: path}
}

func (c *WritableDirChecker) Name() string {
	return c.name
}

func (c *WritableDirChecker) Check(context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			// created on first download
			return CheckResult{Status: StatusHealthy, Message: "will be created on first save"}
		}
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected directory, got file"}
	}

	f, err := os.CreateTemp(c.path, ".write_test")
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "directory is not writable"}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	return CheckResult{Status: StatusHealthy, Message: "directory writable"}
}
