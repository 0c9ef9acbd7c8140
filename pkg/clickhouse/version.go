package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// VersionInfo represents parsed ClickHouse version information
type VersionInfo struct {
	Major int    // Major version number (e.g., 24)
	Minor int    // Minor version number (e.g., 8)
	Patch int    // Patch version number (e.g., 3)
	Raw   string // Raw version string from ClickHouse
}

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// String returns the version as a string in format "major.minor.patch"
func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsAtLeast checks if this version is at least the specified version
func (v VersionInfo) IsAtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// GetVersion retrieves and parses the ClickHouse version from the server.
// It is shown by `chsync info` next to the table metadata.
func (c *Client) GetVersion(ctx context.Context) (*VersionInfo, error) {
	rows, err := c.Query(ctx, "SELECT version()")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query ClickHouse version")
	}
	defer func() { _ = rows.Close() }()

	var versionStr string
	if rows.Next() {
		if err := rows.Scan(&versionStr); err != nil {
			return nil, errors.Wrap(err, "failed to scan ClickHouse version")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read ClickHouse version")
	}

	version, err := parseVersion(versionStr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse ClickHouse version: %s", versionStr)
	}

	return version, nil
}

// parseVersion parses a ClickHouse version string into structured information
// ClickHouse version strings can be in various formats:
// - "24.8.3.59" (standard)
// - "24.8.3.59-lts" (with suffix)
// - "24.8.3.59 (official build)" (with description)
func parseVersion(versionStr string) (*VersionInfo, error) {
	cleaned := strings.TrimSpace(versionStr)
	if i := strings.IndexAny(cleaned, " -"); i != -1 {
		cleaned = cleaned[:i]
	}

	matches := versionRegex.FindStringSubmatch(cleaned)
	if matches == nil {
		return nil, errors.Errorf("invalid version format: %s", versionStr)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])

	patch := 0
	if matches[3] != "" {
		patch, _ = strconv.Atoi(matches[3])
	}

	return &VersionInfo{
		Major: major,
		Minor: minor,
		Patch: patch,
		Raw:   versionStr,
	}, nil
}
