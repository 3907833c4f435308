package domain

import (
	"fmt"
)

// APIVersion is a supported public API version.
type APIVersion string

const (
	APIVersionV1 APIVersion = "v1"
)

var supportedVersions = map[APIVersion]struct{}{
	APIVersionV1: {},
}

// ParseAPIVersion validates and returns an APIVersion.
func ParseAPIVersion(s string) (APIVersion, error) {
	v := APIVersion(s)
	if _, ok := supportedVersions[v]; !ok {
		return "", fmt.Errorf("unknown API version: %s", s)
	}
	return v, nil
}

func (v APIVersion) String() string {
	return string(v)
}

// IsNil returns true if the API version is empty.
func (v APIVersion) IsNil() bool {
	return v == ""
}

// PathPrefix returns the URL prefix routes of this version are mounted under,
// e.g. "/api/v1".
func (v APIVersion) PathPrefix() string {
	return "/api/" + string(v)
}
