package badges

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
	"github.com/UnitVectorY-Labs/cratebadges/internal/maintenance"
)

func ptr(s string) *string { return &s }

func TestDecodeKind_KnownShapes(t *testing.T) {
	tests := []struct {
		name       string
		badgeType  string
		attributes string
		want       Kind
	}{
		{
			name:       "maintenance status",
			badgeType:  "maintenance",
			attributes: `{"status":"as-is"}`,
			want:       Maintenance{Status: maintenance.AsIs},
		},
		{
			name:       "circle-ci without branch",
			badgeType:  "circle-ci",
			attributes: `{"repository":"rust-lang/rust"}`,
			want:       CircleCI{Repository: "rust-lang/rust"},
		},
		{
			name:       "circle-ci with branch",
			badgeType:  "circle-ci",
			attributes: `{"repository":"rust-lang/rust","branch":"master"}`,
			want:       CircleCI{Repository: "rust-lang/rust", Branch: ptr("master")},
		},
		{
			name:       "null optional is absent",
			badgeType:  "circle-ci",
			attributes: `{"repository":"rust-lang/rust","branch":null}`,
			want:       CircleCI{Repository: "rust-lang/rust"},
		},
		{
			name:       "appveyor all fields",
			badgeType:  "appveyor",
			attributes: `{"repository":"a/b","project_name":"p","branch":"main","service":"github","id":"abc123"}`,
			want: Appveyor{
				Repository:  "a/b",
				ProjectName: ptr("p"),
				Branch:      ptr("main"),
				Service:     ptr("github"),
				ID:          ptr("abc123"),
			},
		},
		{
			name:       "azure-devops",
			badgeType:  "azure-devops",
			attributes: `{"project":"org/proj","pipeline":"ci","build":"7"}`,
			want:       AzureDevops{Project: "org/proj", Pipeline: "ci", Build: ptr("7")},
		},
		{
			name:       "bitbucket-pipelines",
			badgeType:  "bitbucket-pipelines",
			attributes: `{"repository":"team/repo","branch":"default"}`,
			want:       BitbucketPipelines{Repository: "team/repo", Branch: "default"},
		},
		{
			name:       "cirrus-ci",
			badgeType:  "cirrus-ci",
			attributes: `{"repository":"a/b"}`,
			want:       CirrusCI{Repository: "a/b"},
		},
		{
			name:       "codecov",
			badgeType:  "codecov",
			attributes: `{"repository":"a/b","service":"github"}`,
			want:       Codecov{Repository: "a/b", Service: ptr("github")},
		},
		{
			name:       "coveralls",
			badgeType:  "coveralls",
			attributes: `{"repository":"a/b","branch":"dev"}`,
			want:       Coveralls{Repository: "a/b", Branch: ptr("dev")},
		},
		{
			name:       "gitlab with tag",
			badgeType:  "gitlab",
			attributes: `{"repository":"g/r","tag":"v1"}`,
			want:       GitLab{Repository: "g/r", Tag: ptr("v1")},
		},
		{
			name:       "is-it-maintained issue resolution",
			badgeType:  "is-it-maintained-issue-resolution",
			attributes: `{"repository":"a/b"}`,
			want:       IsItMaintainedIssueResolution{Repository: "a/b"},
		},
		{
			name:       "is-it-maintained open issues",
			badgeType:  "is-it-maintained-open-issues",
			attributes: `{"repository":"a/b","service":"gitlab"}`,
			want:       IsItMaintainedOpenIssues{Repository: "a/b", Service: ptr("gitlab")},
		},
		{
			name:       "travis-ci",
			badgeType:  "travis-ci",
			attributes: `{"repository":"a/b","branch":"master","tld":"com","master":"m","service":"github"}`,
			want: TravisCI{
				Repository: "a/b",
				Branch:     ptr("master"),
				Service:    ptr("github"),
				Master:     ptr("m"),
				TLD:        ptr("com"),
			},
		},
		{
			name:       "whitespace around object",
			badgeType:  "circle-ci",
			attributes: "  {\n \"repository\" : \"a/b\" }\n",
			want:       CircleCI{Repository: "a/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKind(tt.badgeType, tt.attributes)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeKind mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.badgeType, got.BadgeType())
		})
	}
}

func TestDecodeKind_ShapeMismatchFallsBack(t *testing.T) {
	tests := []struct {
		name       string
		badgeType  string
		attributes string
		want       map[string]string
	}{
		{
			name:       "extra field",
			badgeType:  "circle-ci",
			attributes: `{"repository":"rust-lang/rust","bogus":"x"}`,
			want:       map[string]string{"repository": "rust-lang/rust", "bogus": "x"},
		},
		{
			name:       "missing required field",
			badgeType:  "bitbucket-pipelines",
			attributes: `{"repository":"team/repo"}`,
			want:       map[string]string{"repository": "team/repo"},
		},
		{
			name:       "empty object",
			badgeType:  "travis-ci",
			attributes: `{}`,
			want:       map[string]string{},
		},
		{
			name:       "unknown maintenance status",
			badgeType:  "maintenance",
			attributes: `{"status":"abandoned"}`,
			want:       map[string]string{"status": "abandoned"},
		},
		{
			name:       "maintenance status wrong case",
			badgeType:  "maintenance",
			attributes: `{"status":"As-Is"}`,
			want:       map[string]string{"status": "As-Is"},
		},
		{
			name:       "both alias spellings",
			badgeType:  "appveyor",
			attributes: `{"repository":"a/b","project_name":"x","project-name":"y"}`,
			want:       map[string]string{"repository": "a/b", "project_name": "x", "project-name": "y"},
		},
		{
			name:       "alias on a kind without one",
			badgeType:  "codecov",
			attributes: `{"repository":"a/b","project-name":"x"}`,
			want:       map[string]string{"repository": "a/b", "project-name": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKind(tt.badgeType, tt.attributes)
			require.NoError(t, err)
			want := Other{Type: tt.badgeType, Values: tt.want}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("DecodeKind mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeKind_ShapeMismatchUnrepresentable(t *testing.T) {
	// These fail the strict shape and then also fail the string-map
	// fallback, so they surface as attribute errors.
	tests := []struct {
		name       string
		badgeType  string
		attributes string
		cause      error
	}{
		{"null required field", "circle-ci", `{"repository":null}`, ErrNonStringAttribute},
		{"number field", "gitlab", `{"repository":"a/b","branch":5}`, ErrNonStringAttribute},
		{"duplicate field", "circle-ci", `{"repository":"a/b","repository":"c/d"}`, ErrDuplicateAttribute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeKind(tt.badgeType, tt.attributes)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAttributes)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestDecodeKind_UnknownTag(t *testing.T) {
	got, err := DecodeKind("my-custom-badge", `{"foo":"bar"}`)
	require.NoError(t, err)
	assert.Equal(t, Other{Type: "my-custom-badge", Values: map[string]string{"foo": "bar"}}, got)

	// Tags are matched exactly.
	got, err = DecodeKind("Circle-CI", `{"repository":"a/b"}`)
	require.NoError(t, err)
	assert.Equal(t, Other{Type: "Circle-CI", Values: map[string]string{"repository": "a/b"}}, got)

	got, err = DecodeKind(" maintenance", `{"status":"none"}`)
	require.NoError(t, err)
	assert.IsType(t, Other{}, got)
	assert.Equal(t, " maintenance", got.BadgeType())
}

func TestDecodeKind_StructuralErrors(t *testing.T) {
	blobs := []string{
		`not a mapping at all`,
		`"a string"`,
		`["repository","a/b"]`,
		`42`,
		`null`,
		``,
		`{"repository":"a/b"`,
		`{"repository":"a/b",}`,
		`{"repository":"a/b"} {}`,
		`{"repository":"a/b"}x`,
		`{"nested":{"a":"b"}}`,
		`{"flag":true}`,
		`{"a":"b","a":"c"}`,
		"{\"k\":\"a\xffb\"}",
		"{\"k\xfe\":\"v\"}",
	}

	for _, tag := range []string{"gitlab", "maintenance", "unknown-type"} {
		for _, blob := range blobs {
			_, err := DecodeKind(tag, blob)
			require.Error(t, err, "tag %q blob %q", tag, blob)
			assert.ErrorIs(t, err, ErrAttributes)
			assert.NotErrorIs(t, err, ErrRawRecord)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, CodeAttributes, decodeErr.Code)
			assert.Equal(t, ColumnAttributes, decodeErr.Field)
		}
	}

	_, err := DecodeKind("gitlab", `not a mapping at all`)
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = DecodeKind("x", "{\"k\":\"a\xffb\"}")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecodeKind_AliasEquivalence(t *testing.T) {
	canonical, err := DecodeKind("appveyor", `{"repository":"a/b","project_name":"proj"}`)
	require.NoError(t, err)
	aliased, err := DecodeKind("appveyor", `{"repository":"a/b","project-name":"proj"}`)
	require.NoError(t, err)

	assert.Equal(t, Appveyor{Repository: "a/b", ProjectName: ptr("proj")}, canonical)
	assert.True(t, cmp.Equal(canonical, aliased))
}

func TestDecode(t *testing.T) {
	row, err := Decode(Record{CrateID: "12", BadgeType: "maintenance", Attributes: `{"status":"deprecated"}`})
	require.NoError(t, err)
	assert.Equal(t, Row{CrateID: crates.ID(12), Kind: Maintenance{Status: maintenance.Deprecated}}, row)

	_, err = Decode(Record{CrateID: "twelve", BadgeType: "maintenance", Attributes: `{"status":"none"}`})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnerKey)
	assert.NotErrorIs(t, err, ErrAttributes)
}

func TestDecode_Idempotent(t *testing.T) {
	records := []Record{
		{CrateID: "1", BadgeType: "travis-ci", Attributes: `{"repository":"a/b","branch":"master"}`},
		{CrateID: "2", BadgeType: "circle-ci", Attributes: `{"repository":"a/b","bogus":"x"}`},
		{CrateID: "3", BadgeType: "weird", Attributes: `{"k":"v"}`},
	}
	for _, rec := range records {
		first, err := Decode(rec)
		require.NoError(t, err)
		second, err := Decode(rec)
		require.NoError(t, err)
		assert.True(t, cmp.Equal(first, second), "record %+v", rec)
	}
}

func TestRow_RecordRoundTrip(t *testing.T) {
	records := []Record{
		{CrateID: "1", BadgeType: "appveyor", Attributes: `{"repository":"a/b","project-name":"p","id":"x"}`},
		{CrateID: "2", BadgeType: "maintenance", Attributes: `{"status":"looking-for-maintainer"}`},
		{CrateID: "3", BadgeType: "gitlab", Attributes: `{"repository":"a/<b>&c","branch":null}`},
		{CrateID: "4", BadgeType: "circle-ci", Attributes: `{"repository":"a/b","bogus":"x"}`},
		{CrateID: "5", BadgeType: "my-custom-badge", Attributes: `{}`},
	}
	for _, rec := range records {
		row, err := Decode(rec)
		require.NoError(t, err)

		again, err := row.Record()
		require.NoError(t, err)
		decoded, err := Decode(again)
		require.NoError(t, err)

		if diff := cmp.Diff(row, decoded); diff != "" {
			t.Errorf("round trip of %+v (-first +second):\n%s", rec, diff)
		}
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	row := Row{CrateID: 9, Kind: CircleCI{Repository: "a/b", Branch: ptr("main")}}
	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"crate_id":9,"badge_type":"circle-ci","attributes":{"repository":"a/b","branch":"main"}}`, string(data))
}

func TestFromRecord(t *testing.T) {
	headers := []string{"attributes", "badge_type", "crate_id"}
	row, err := FromRecord(headers, []string{`{"repository":"rust-lang/rust"}`, "circle-ci", "48"})
	require.NoError(t, err)
	assert.Equal(t, Row{CrateID: 48, Kind: CircleCI{Repository: "rust-lang/rust"}}, row)

	var _ dump.FromRecord[Row] = FromRecord
}

func TestFromRecord_RawShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		fields  []string
	}{
		{"missing attributes column", []string{"badge_type", "crate_id"}, []string{"gitlab", "1"}},
		{"extra column", []string{"attributes", "badge_type", "crate_id", "extra"}, []string{"{}", "x", "1", "y"}},
		{"duplicate column", []string{"attributes", "badge_type", "crate_id", "crate_id"}, []string{"{}", "x", "1", "2"}},
		{"short row", []string{"attributes", "badge_type", "crate_id"}, []string{"{}", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.headers, tt.fields)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRawRecord)

			var shape *dump.ShapeError
			assert.True(t, errors.As(err, &shape))
		})
	}
}

func TestDecode_Concurrent(t *testing.T) {
	rec := Record{CrateID: "5", BadgeType: "codecov", Attributes: `{"repository":"a/b","branch":"main"}`}
	want, err := Decode(rec)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Row, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Decode(rec)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, cmp.Equal(want, got))
	}
}

func TestKnownTags(t *testing.T) {
	tags := KnownTags()
	assert.Len(t, tags, 12)
	assert.IsIncreasing(t, tags)
	for _, tag := range tags {
		assert.True(t, IsKnown(tag))
	}
	assert.False(t, IsKnown("other"))
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Code: CodeOwnerKey, Field: "crate_id", Err: errors.New("bad")}
	assert.Equal(t, "badges: OWNER_KEY crate_id: bad", err.Error())
	assert.Equal(t, "badges: RAW_RECORD", ErrRawRecord.Error())
}
