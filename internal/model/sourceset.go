package model

import (
	"git.home.luguber.info/inful/apidoc/internal/foundation/normalization"
)

// SourceSetID identifies one analysis target of the build.
type SourceSetID string

// Platform is the analysis platform of a source set.
type Platform string

const (
	PlatformJVM    Platform = "jvm"
	PlatformJS     Platform = "js"
	PlatformNative Platform = "native"
	PlatformWasm   Platform = "wasm"
	PlatformCommon Platform = "common"
)

var platformNormalizer = normalization.NewNormalizer(map[string]Platform{
	"jvm":    PlatformJVM,
	"java":   PlatformJVM,
	"js":     PlatformJS,
	"native": PlatformNative,
	"wasm":   PlatformWasm,
	"common": PlatformCommon,
}, PlatformJVM)

// NormalizePlatform maps user input onto a known platform, defaulting to jvm.
func NormalizePlatform(raw string) Platform {
	return platformNormalizer.Normalize(raw)
}

// SourceSet groups source roots analysed for one platform.
type SourceSet struct {
	ID          SourceSetID   `json:"id" yaml:"id"`
	DisplayName string        `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Platform    Platform      `json:"platform" yaml:"platform"`
	DependsOn   []SourceSetID `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Name returns the display name, falling back to the ID.
func (s SourceSet) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return string(s.ID)
}
