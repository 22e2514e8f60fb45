package roster

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

func TestDecode_MinimalAndFull(t *testing.T) {
	input := "alice CS student\n" +
		"\n" +
		"bob Math teacher AI chess null\n"

	records, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{ID: "alice", Department: "CS", Role: "student"}, records[0])
	assert.Equal(t, Record{
		ID: "bob", Department: "Math", Role: "teacher",
		Interest: "AI", FavoriteActivity: "chess",
	}, records[1])
}

func TestDecode_NullMeansUnset(t *testing.T) {
	records, err := Decode(strings.NewReader("carol null student\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	attrs := records[0].Attributes()
	_, ok := attrs[network.AttrDepartment]
	assert.False(t, ok, "null department should be unset")
	assert.Equal(t, "student", attrs[network.AttrRole])
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"too few fields", "alice CS\n", 1},
		{"four fields", "alice\nbob CS student AI\n", 1},
		{"error after blank lines", "alice CS student\n\n\nbob CS\n", 4},
		{"null id", "null CS student\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %T", err)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestDecode_KeepsRecordsBeforeError(t *testing.T) {
	records, err := Decode(strings.NewReader("alice CS student\nbroken\n"))
	require.Error(t, err)
	assert.Len(t, records, 1)
}

func TestEncode_Minimal(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []Record{
		{ID: "alice", Department: "CS", Role: "student", Interest: "AI"},
		{ID: "bob", Role: "teacher"},
	}, FormatMinimal)
	require.NoError(t, err)

	assert.Equal(t, "alice CS student\nbob null teacher\n", buf.String())
}

func TestEncode_Full(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []Record{
		{ID: "alice", Department: "CS", Role: "student", Interest: "AI", LifeGoal: "teach"},
	}, FormatFull)
	require.NoError(t, err)

	assert.Equal(t, "alice CS student AI null teach\n", buf.String())
}

func TestEncode_RejectsWhitespace(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []Record{{ID: "alice", Department: "Computer Science"}}, FormatMinimal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "department must not contain whitespace")
}

func TestEncode_MinimalIgnoresUnwrittenColumns(t *testing.T) {
	var buf bytes.Buffer
	rec := Record{ID: "alice", Department: "CS", Role: "student", Interest: "machine learning"}

	require.NoError(t, Encode(&buf, []Record{rec}, FormatMinimal))
	assert.Equal(t, "alice CS student\n", buf.String())

	buf.Reset()
	err := Encode(&buf, []Record{rec}, FormatFull)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interest must not contain whitespace")
}

func TestEncode_RejectsNullValue(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []Record{{ID: "alice", Role: "null"}}, FormatMinimal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `role must not be "null"`)

	err = Encode(&buf, []Record{{ID: "null"}}, FormatMinimal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `id must not be "null"`)
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"AI", true},
		{"machine-learning", true},
		{"", false},
		{"null", false},
		{"machine learning", false},
		{"tab\there", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := CheckValue(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []network.AttributeKey{network.AttrDepartment, network.AttrRole}, Columns(FormatMinimal))
	assert.Len(t, Columns(FormatFull), 5)
}

func TestWriteFile_FailedEncodeKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice CS student\n"), 0o644))

	err := WriteFile(path, []Record{{ID: "alice", Department: "Computer Science"}}, FormatMinimal)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice CS student\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be removed")
}

func TestWriteFile_ReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("old CS student\n"), 0o644))

	require.NoError(t, WriteFile(path, []Record{{ID: "alice", Role: "student"}}, FormatMinimal))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice null student\n", string(data))
}

func TestRoundTrip_Minimal(t *testing.T) {
	net := network.New(network.Limits{})
	require.NoError(t, net.Register("alice", network.Attributes{
		network.AttrDepartment: "CS",
		network.AttrRole:       "student",
		network.AttrInterest:   "AI",
	}))
	require.NoError(t, net.Register("bob", network.Attributes{network.AttrRole: "teacher"}))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FromMembers(net.Members()), FormatMinimal))

	records, err := Decode(&buf)
	require.NoError(t, err)

	reloaded := network.New(network.Limits{})
	applied, failures := Apply(reloaded, records)
	assert.Equal(t, 2, applied)
	assert.Empty(t, failures)

	alice, ok := reloaded.Member("alice")
	require.True(t, ok)
	assert.Equal(t, "CS", alice.Department())
	assert.Equal(t, "student", alice.Role())
	_, ok = alice.Attribute(network.AttrInterest)
	assert.False(t, ok, "minimal format drops interest")

	bob, ok := reloaded.Member("bob")
	require.True(t, ok)
	_, ok = bob.Attribute(network.AttrDepartment)
	assert.False(t, ok)
}

func TestRoundTrip_Full(t *testing.T) {
	original := []Record{
		{ID: "alice", Department: "CS", Role: "student", Interest: "AI", FavoriteActivity: "chess", LifeGoal: "teach"},
		{ID: "bob", Department: "Math"},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original, FormatFull))

	records, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, records)
}

func TestApply_ReportsDuplicates(t *testing.T) {
	net := network.New(network.Limits{})
	records := []Record{
		{ID: "alice", Department: "CS"},
		{ID: "alice", Department: "Math"},
		{ID: "bob"},
	}

	applied, failures := Apply(net, records)
	assert.Equal(t, 2, applied)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, network.ErrAlreadyExists)

	alice, _ := net.Member("alice")
	assert.Equal(t, "CS", alice.Department(), "duplicate must not overwrite")
}

func TestApply_CapacityLimit(t *testing.T) {
	net := network.New(network.Limits{MaxMembers: 1})
	applied, failures := Apply(net, []Record{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, 1, applied)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, network.ErrCapacityExceeded)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("full")
	require.NoError(t, err)
	assert.Equal(t, FormatFull, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatMinimal, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}
