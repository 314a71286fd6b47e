package badges

import "github.com/UnitVectorY-Labs/cratebadges/internal/maintenance"

// Kind is the decoded payload of a badge row. The set of implementations is
// closed: one struct per known badge type plus Other for everything else.
//
// Optional attributes are nil when the source omitted them (or set them to
// null); they are never defaulted to an empty string.
type Kind interface {
	// BadgeType returns the badge_type tag the kind was decoded from.
	BadgeType() string
	// Attributes returns the kind's attributes as a fresh string map using
	// canonical attribute names. Encoding this map as a JSON object and
	// decoding it again under BadgeType yields an equal Kind.
	Attributes() map[string]string

	isKind()
}

// Appveyor is the "appveyor" badge.
type Appveyor struct {
	Repository  string
	ProjectName *string
	Branch      *string
	Service     *string
	ID          *string
}

// AzureDevops is the "azure-devops" badge.
type AzureDevops struct {
	Project  string
	Pipeline string
	Build    *string
}

// BitbucketPipelines is the "bitbucket-pipelines" badge. Both fields are
// required.
type BitbucketPipelines struct {
	Repository string
	Branch     string
}

// CircleCI is the "circle-ci" badge.
type CircleCI struct {
	Repository string
	Branch     *string
}

// CirrusCI is the "cirrus-ci" badge.
type CirrusCI struct {
	Repository string
	Branch     *string
}

// Codecov is the "codecov" badge.
type Codecov struct {
	Repository string
	Branch     *string
	Service    *string
}

// Coveralls is the "coveralls" badge.
type Coveralls struct {
	Repository string
	Branch     *string
	Service    *string
}

// GitLab is the "gitlab" badge.
type GitLab struct {
	Repository string
	Branch     *string
	Tag        *string
}

// IsItMaintainedIssueResolution is the "is-it-maintained-issue-resolution"
// badge.
type IsItMaintainedIssueResolution struct {
	Repository string
	Service    *string
}

// IsItMaintainedOpenIssues is the "is-it-maintained-open-issues" badge.
type IsItMaintainedOpenIssues struct {
	Repository string
	Service    *string
}

// Maintenance is the "maintenance" badge. Status must be one of the
// declared maintenance states.
type Maintenance struct {
	Status maintenance.Status
}

// TravisCI is the "travis-ci" badge.
type TravisCI struct {
	Repository string
	Branch     *string
	Service    *string
	Master     *string
	TLD        *string
}

// Other carries a badge whose type is unknown, or whose attributes did not
// fit the strict shape of a known type. Type is the original tag verbatim.
type Other struct {
	Type   string
	Values map[string]string
}

func (Appveyor) BadgeType() string                      { return TypeAppveyor }
func (AzureDevops) BadgeType() string                   { return TypeAzureDevops }
func (BitbucketPipelines) BadgeType() string            { return TypeBitbucketPipelines }
func (CircleCI) BadgeType() string                      { return TypeCircleCI }
func (CirrusCI) BadgeType() string                      { return TypeCirrusCI }
func (Codecov) BadgeType() string                       { return TypeCodecov }
func (Coveralls) BadgeType() string                     { return TypeCoveralls }
func (GitLab) BadgeType() string                        { return TypeGitLab }
func (IsItMaintainedIssueResolution) BadgeType() string { return TypeIsItMaintainedIssueResolution }
func (IsItMaintainedOpenIssues) BadgeType() string      { return TypeIsItMaintainedOpenIssues }
func (Maintenance) BadgeType() string                   { return TypeMaintenance }
func (TravisCI) BadgeType() string                      { return TypeTravisCI }
func (o Other) BadgeType() string                       { return o.Type }

func (Appveyor) isKind()                      {}
func (AzureDevops) isKind()                   {}
func (BitbucketPipelines) isKind()            {}
func (CircleCI) isKind()                      {}
func (CirrusCI) isKind()                      {}
func (Codecov) isKind()                       {}
func (Coveralls) isKind()                     {}
func (GitLab) isKind()                        {}
func (IsItMaintainedIssueResolution) isKind() {}
func (IsItMaintainedOpenIssues) isKind()      {}
func (Maintenance) isKind()                   {}
func (TravisCI) isKind()                      {}
func (Other) isKind()                         {}

// attrs collects canonical attributes, skipping absent optionals.
type attrs map[string]string

func (a attrs) opt(name string, value *string) attrs {
	if value != nil {
		a[name] = *value
	}
	return a
}

func (k Appveyor) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.
		opt("project_name", k.ProjectName).
		opt("branch", k.Branch).
		opt("service", k.Service).
		opt("id", k.ID)
}

func (k AzureDevops) Attributes() map[string]string {
	return attrs{"project": k.Project, "pipeline": k.Pipeline}.opt("build", k.Build)
}

func (k BitbucketPipelines) Attributes() map[string]string {
	return attrs{"repository": k.Repository, "branch": k.Branch}
}

func (k CircleCI) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("branch", k.Branch)
}

func (k CirrusCI) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("branch", k.Branch)
}

func (k Codecov) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("branch", k.Branch).opt("service", k.Service)
}

func (k Coveralls) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("branch", k.Branch).opt("service", k.Service)
}

func (k GitLab) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("branch", k.Branch).opt("tag", k.Tag)
}

func (k IsItMaintainedIssueResolution) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("service", k.Service)
}

func (k IsItMaintainedOpenIssues) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.opt("service", k.Service)
}

func (k Maintenance) Attributes() map[string]string {
	return attrs{"status": string(k.Status)}
}

func (k TravisCI) Attributes() map[string]string {
	return attrs{"repository": k.Repository}.
		opt("branch", k.Branch).
		opt("service", k.Service).
		opt("master", k.Master).
		opt("tld", k.TLD)
}

func (o Other) Attributes() map[string]string {
	out := make(map[string]string, len(o.Values))
	for k, v := range o.Values {
		out[k] = v
	}
	return out
}
