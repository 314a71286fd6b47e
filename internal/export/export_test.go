package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/UnitVectorY-Labs/cratebadges/internal/badges"
	"github.com/UnitVectorY-Labs/cratebadges/internal/codec"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const badgesCSV = `crate_id,badge_type,attributes
1,travis-ci,"{""repository"":""a/b""}"
2,maintenance,"{""status"":""bogus""}"
3,travis-ci,not json
`

var wantRows = []badges.Exported{
	{CrateID: 1, BadgeType: "travis-ci", Attributes: map[string]string{"repository": "a/b"}},
	{CrateID: 2, BadgeType: "maintenance", Attributes: map[string]string{"status": "bogus"}},
}

func writeDump(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dump.Path(dir, badges.Table), []byte(badgesCSV), 0o644))
	return dir
}

func TestFileName(t *testing.T) {
	name, err := FileName(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "badges.json", name)

	name, err = FileName(FormatCBOR)
	require.NoError(t, err)
	assert.Equal(t, "badges.cbor", name)

	_, err = FileName("xml")
	assert.Error(t, err)
}

func TestRun_JSON(t *testing.T) {
	out := t.TempDir()
	stats, err := Run(context.Background(), Options{
		DumpDir:   writeDump(t),
		OutputDir: out,
		Format:    FormatJSON,
		Policy:    dump.Skip,
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Path: filepath.Join(out, "badges.json"), Rows: 2, Errors: 1}, stats)

	data, err := os.ReadFile(stats.Path)
	require.NoError(t, err)
	var got []badges.Exported
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(wantRows, got); diff != "" {
		t.Errorf("exported rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CBOR(t *testing.T) {
	out := t.TempDir()
	stats, err := Run(context.Background(), Options{
		DumpDir:   writeDump(t),
		OutputDir: out,
		Format:    FormatCBOR,
		Policy:    dump.Skip,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)

	file, err := os.Open(stats.Path)
	require.NoError(t, err)
	defer file.Close()

	var got []badges.Exported
	dec := codec.NewDecoder(file)
	for {
		var e badges.Exported
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}
	if diff := cmp.Diff(wantRows, got); diff != "" {
		t.Errorf("exported rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Abort(t *testing.T) {
	out := t.TempDir()
	_, err := Run(context.Background(), Options{
		DumpDir:   writeDump(t),
		OutputDir: out,
		Format:    FormatJSON,
		Policy:    dump.Abort,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, badges.ErrAttributes)
	assert.NoFileExists(t, filepath.Join(out, "badges.json"))
}

func TestRun_MissingTable(t *testing.T) {
	_, err := Run(context.Background(), Options{
		DumpDir:   t.TempDir(),
		OutputDir: t.TempDir(),
		Format:    FormatJSON,
	})
	assert.Error(t, err)
}

func TestWrite_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWrite_CBORDeterministic(t *testing.T) {
	rows := []badges.Row{
		{CrateID: 7, Kind: badges.Other{Type: "x", Values: map[string]string{"b": "2", "a": "1", "c": "3"}}},
	}
	var first, second bytes.Buffer
	require.NoError(t, Write(&first, FormatCBOR, rows))
	require.NoError(t, Write(&second, FormatCBOR, rows))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(io.Discard, "xml", nil))
}
