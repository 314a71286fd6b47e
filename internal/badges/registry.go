package badges

import (
	"sort"

	"github.com/UnitVectorY-Labs/cratebadges/internal/maintenance"
)

// Known badge_type tags.
const (
	TypeAppveyor                      = "appveyor"
	TypeAzureDevops                   = "azure-devops"
	TypeBitbucketPipelines            = "bitbucket-pipelines"
	TypeCircleCI                      = "circle-ci"
	TypeCirrusCI                      = "cirrus-ci"
	TypeCodecov                       = "codecov"
	TypeCoveralls                     = "coveralls"
	TypeGitLab                        = "gitlab"
	TypeIsItMaintainedIssueResolution = "is-it-maintained-issue-resolution"
	TypeIsItMaintainedOpenIssues      = "is-it-maintained-open-issues"
	TypeMaintenance                   = "maintenance"
	TypeTravisCI                      = "travis-ci"
)

// field declares one attribute of a strict shape. alias is a second
// accepted spelling of the same attribute; supplying both spellings in one
// blob is a shape mismatch.
type field struct {
	name     string
	alias    string
	required bool
}

type shape struct {
	fields []field
	// build runs after presence checks, so required values are always set.
	// It reports false when a present value is not acceptable for its type.
	build func(v values) (Kind, bool)
}

func (s *shape) lookup(key string) (field, bool) {
	for _, f := range s.fields {
		if f.name == key || (f.alias != "" && f.alias == key) {
			return f, true
		}
	}
	return field{}, false
}

// values holds the present attributes of a strict decode by canonical name.
type values map[string]string

func (v values) get(name string) string {
	return v[name]
}

func (v values) opt(name string) *string {
	s, ok := v[name]
	if !ok {
		return nil
	}
	return &s
}

func required(name string) field { return field{name: name, required: true} }
func optional(name string) field { return field{name: name} }

// registry is read-only after package initialization.
var registry = map[string]*shape{
	TypeAppveyor: {
		fields: []field{
			required("repository"),
			{name: "project_name", alias: "project-name"},
			optional("branch"),
			optional("service"),
			optional("id"),
		},
		build: func(v values) (Kind, bool) {
			return Appveyor{
				Repository:  v.get("repository"),
				ProjectName: v.opt("project_name"),
				Branch:      v.opt("branch"),
				Service:     v.opt("service"),
				ID:          v.opt("id"),
			}, true
		},
	},
	TypeAzureDevops: {
		fields: []field{required("project"), required("pipeline"), optional("build")},
		build: func(v values) (Kind, bool) {
			return AzureDevops{
				Project:  v.get("project"),
				Pipeline: v.get("pipeline"),
				Build:    v.opt("build"),
			}, true
		},
	},
	TypeBitbucketPipelines: {
		fields: []field{required("repository"), required("branch")},
		build: func(v values) (Kind, bool) {
			return BitbucketPipelines{Repository: v.get("repository"), Branch: v.get("branch")}, true
		},
	},
	TypeCircleCI: {
		fields: []field{required("repository"), optional("branch")},
		build: func(v values) (Kind, bool) {
			return CircleCI{Repository: v.get("repository"), Branch: v.opt("branch")}, true
		},
	},
	TypeCirrusCI: {
		fields: []field{required("repository"), optional("branch")},
		build: func(v values) (Kind, bool) {
			return CirrusCI{Repository: v.get("repository"), Branch: v.opt("branch")}, true
		},
	},
	TypeCodecov: {
		fields: []field{required("repository"), optional("branch"), optional("service")},
		build: func(v values) (Kind, bool) {
			return Codecov{
				Repository: v.get("repository"),
				Branch:     v.opt("branch"),
				Service:    v.opt("service"),
			}, true
		},
	},
	TypeCoveralls: {
		fields: []field{required("repository"), optional("branch"), optional("service")},
		build: func(v values) (Kind, bool) {
			return Coveralls{
				Repository: v.get("repository"),
				Branch:     v.opt("branch"),
				Service:    v.opt("service"),
			}, true
		},
	},
	TypeGitLab: {
		fields: []field{required("repository"), optional("branch"), optional("tag")},
		build: func(v values) (Kind, bool) {
			return GitLab{
				Repository: v.get("repository"),
				Branch:     v.opt("branch"),
				Tag:        v.opt("tag"),
			}, true
		},
	},
	TypeIsItMaintainedIssueResolution: {
		fields: []field{required("repository"), optional("service")},
		build: func(v values) (Kind, bool) {
			return IsItMaintainedIssueResolution{Repository: v.get("repository"), Service: v.opt("service")}, true
		},
	},
	TypeIsItMaintainedOpenIssues: {
		fields: []field{required("repository"), optional("service")},
		build: func(v values) (Kind, bool) {
			return IsItMaintainedOpenIssues{Repository: v.get("repository"), Service: v.opt("service")}, true
		},
	},
	TypeMaintenance: {
		fields: []field{required("status")},
		build: func(v values) (Kind, bool) {
			status, err := maintenance.ParseStatus(v.get("status"))
			if err != nil {
				return nil, false
			}
			return Maintenance{Status: status}, true
		},
	},
	TypeTravisCI: {
		fields: []field{
			required("repository"),
			optional("branch"),
			optional("service"),
			optional("master"),
			optional("tld"),
		},
		build: func(v values) (Kind, bool) {
			return TravisCI{
				Repository: v.get("repository"),
				Branch:     v.opt("branch"),
				Service:    v.opt("service"),
				Master:     v.opt("master"),
				TLD:        v.opt("tld"),
			}, true
		},
	},
}

// lookup is an exact, case-sensitive match on the tag.
func lookup(tag string) (*shape, bool) {
	s, ok := registry[tag]
	return s, ok
}

// IsKnown reports whether tag names a badge type with a strict shape.
func IsKnown(tag string) bool {
	_, ok := lookup(tag)
	return ok
}

// KnownTags returns the known badge_type tags in sorted order.
func KnownTags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
